package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/params"
)

// maskSVG generates the vector document for a shape mask over a width x
// height canvas, plus the shape's bounding box for mask trimming. The engine
// rasterizes the document and keeps only pixels under the white fill.
func maskSVG(shape params.MaskShape, width, height int) ([]byte, core.Rect) {
	full := core.Rect{Left: 0, Top: 0, Width: width, Height: height}
	cx := float64(width) / 2
	cy := float64(height) / 2
	r := math.Min(cx, cy)

	var body string
	bounds := full

	switch shape {
	case params.MaskCircle:
		body = fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`, cx, cy, r)
		bounds = core.Rect{
			Left: int(cx - r), Top: int(cy - r),
			Width: int(2 * r), Height: int(2 * r),
		}
	case params.MaskEllipse:
		body = fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f"/>`, cx, cy, cx, cy)
	case params.MaskTriangle:
		body, bounds = polygonBody(3, cx, cy, r, -math.Pi/2)
	case params.MaskTriangle180:
		body, bounds = polygonBody(3, cx, cy, r, math.Pi/2)
	case params.MaskPentagon:
		body, bounds = polygonBody(5, cx, cy, r, -math.Pi/2)
	case params.MaskPentagon180:
		body, bounds = polygonBody(5, cx, cy, r, math.Pi/2)
	case params.MaskHexagon:
		body, bounds = polygonBody(6, cx, cy, r, 0)
	case params.MaskSquare:
		// Rotated 45 degrees: a diamond inscribed in the canvas.
		body, bounds = polygonBody(4, cx, cy, r, -math.Pi/2)
	case params.MaskStar:
		body, bounds = starBody(cx, cy, r)
	case params.MaskHeart:
		body = heartBody(float64(width), float64(height))
	default:
		return nil, full
	}

	doc := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">%s</svg>`,
		width, height, body)
	return []byte(doc), bounds
}

// polygonBody builds a regular n-gon inscribed in the circle of radius r
// around (cx, cy), first vertex at the given angle.
func polygonBody(n int, cx, cy, r, start float64) (string, core.Rect) {
	pts := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		a := start + 2*math.Pi*float64(i)/float64(n)
		pts = append(pts, [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pointsBody(pts), pointsBounds(pts)
}

// starBody builds a five-pointed star alternating between the outer radius
// and a golden-ratio inner radius.
func starBody(cx, cy, r float64) (string, core.Rect) {
	const inner = 0.382
	pts := make([][2]float64, 0, 10)
	for i := 0; i < 10; i++ {
		ri := r
		if i%2 == 1 {
			ri = r * inner
		}
		a := -math.Pi/2 + math.Pi*float64(i)/5
		pts = append(pts, [2]float64{cx + ri*math.Cos(a), cy + ri*math.Sin(a)})
	}
	return pointsBody(pts), pointsBounds(pts)
}

// heartBody scales a unit-space heart defined by two cubic beziers onto the
// canvas.
func heartBody(w, h float64) string {
	// Two bezier lobes meeting at the top notch and the bottom apex,
	// control points in a 0..1 design space scaled onto the canvas.
	d := fmt.Sprintf(
		"M %.1f,%.1f C %.1f,%.1f %.1f,%.1f %.1f,%.1f C %.1f,%.1f %.1f,%.1f %.1f,%.1f Z",
		0.5*w, 0.25*h,
		0.2*w, -0.1*h, -0.25*w, 0.35*h, 0.5*w, h,
		1.25*w, 0.35*h, 0.8*w, -0.1*h, 0.5*w, 0.25*h,
	)
	return fmt.Sprintf(`<path d="%s"/>`, d)
}

func pointsBody(pts [][2]float64) string {
	var b strings.Builder
	b.WriteString(`<polygon points="`)
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", p[0], p[1])
	}
	b.WriteString(`"/>`)
	return b.String()
}

func pointsBounds(pts [][2]float64) core.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	return core.Rect{
		Left:   int(math.Floor(minX)),
		Top:    int(math.Floor(minY)),
		Width:  int(math.Ceil(maxX - minX)),
		Height: int(math.Ceil(maxY - minY)),
	}
}
