package vips

import (
	"fmt"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
)

// export realizes the lazy pipeline into encoded bytes. This is the sole
// suspension point of a request: libvips walks the demand graph here.
func export(ref *govips.ImageRef, opts core.SaveOptions) ([]byte, error) {
	switch opts.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = opts.Quality
		ep.Interlace = opts.Interlace
		ep.StripMetadata = opts.StripMetadata
		buf, _, err := ref.ExportJpeg(ep)
		if err != nil {
			return nil, fmt.Errorf("vips export jpeg: %w", err)
		}
		return buf, nil

	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.Compression = opts.ZlibLevel
		ep.Interlace = opts.Interlace
		ep.StripMetadata = opts.StripMetadata
		if opts.AdaptiveFilter {
			ep.Filter = govips.PngFilterAll
		} else {
			ep.Filter = govips.PngFilterNone
		}
		buf, _, err := ref.ExportPng(ep)
		if err != nil {
			return nil, fmt.Errorf("vips export png: %w", err)
		}
		return buf, nil

	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = opts.Quality
		ep.StripMetadata = opts.StripMetadata
		buf, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, fmt.Errorf("vips export webp: %w", err)
		}
		return buf, nil

	case core.FormatTIFF:
		ep := govips.NewTiffExportParams()
		ep.Quality = opts.Quality
		ep.StripMetadata = opts.StripMetadata
		buf, _, err := ref.ExportTiff(ep)
		if err != nil {
			return nil, fmt.Errorf("vips export tiff: %w", err)
		}
		return buf, nil

	case core.FormatGIF:
		ep := govips.NewGifExportParams()
		ep.StripMetadata = opts.StripMetadata
		buf, _, err := ref.ExportGIF(ep)
		if err != nil {
			return nil, fmt.Errorf("vips export gif: %w", err)
		}
		return buf, nil
	}

	return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedSaver, opts.Format)
}

func vipsKernel(k core.Kernel) govips.Kernel {
	switch k {
	case core.KernelNearest:
		return govips.KernelNearest
	case core.KernelLinear:
		return govips.KernelLinear
	case core.KernelCubic:
		return govips.KernelCubic
	case core.KernelMitchell:
		return govips.KernelMitchell
	case core.KernelLanczos2:
		return govips.KernelLanczos2
	default:
		return govips.KernelLanczos3
	}
}

func vipsAngle(angle int) govips.Angle {
	switch angle {
	case 90:
		return govips.Angle90
	case 180:
		return govips.Angle180
	case 270:
		return govips.Angle270
	default:
		return govips.Angle0
	}
}
