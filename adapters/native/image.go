package native

import (
	"image"

	"github.com/pixelgate/imagepipe/core"
)

// nativeImage wraps a decoded image.Image. The stdlib decoders expose no
// header metadata beyond dimensions, so most introspection fields report
// their zero values and the descriptor layer fills in defaults.
type nativeImage struct {
	img      image.Image
	loader   string
	hasAlpha bool
	gray     bool
}

func (n *nativeImage) Width() int { return n.img.Bounds().Dx() }
func (n *nativeImage) Height() int { return n.img.Bounds().Dy() }

func (n *nativeImage) Bands() int {
	bands := 3
	if n.gray {
		bands = 1
	}
	if n.hasAlpha {
		bands++
	}
	return bands
}

func (n *nativeImage) HasAlpha() bool { return n.hasAlpha }
func (n *nativeImage) Loader() string { return n.loader }

func (n *nativeImage) Space() string {
	if n.gray {
		return "b-w"
	}
	return "srgb"
}

func (n *nativeImage) Depth() string { return "uchar" }
func (n *nativeImage) HasProfile() bool { return false }
func (n *nativeImage) XRes() float64 { return 0 }
func (n *nativeImage) Orientation() int { return 0 }

// The stdlib decoders never surface multi-page metadata, so both page
// fields report absence rather than a synthesized single page.
func (n *nativeImage) Pages() int { return 0 }
func (n *nativeImage) PageHeight() int { return 0 }

func (n *nativeImage) HasField(string) bool { return false }

func (n *nativeImage) IntField(string) (int, bool) { return 0, false }
func (n *nativeImage) IntArrayField(string) ([]int, bool) { return nil, false }
func (n *nativeImage) StringField(string) (string, bool) { return "", false }

// Close releases nothing; the Go GC owns the pixel buffer.
func (n *nativeImage) Close() {}

var _ core.Image = (*nativeImage)(nil)
