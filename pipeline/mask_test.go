package pipeline

import (
	"strings"
	"testing"

	"github.com/pixelgate/imagepipe/params"
)

func TestMaskSVGCircle(t *testing.T) {
	doc, bounds := maskSVG(params.MaskCircle, 200, 100)
	s := string(doc)

	if !strings.Contains(s, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Fatalf("missing svg namespace: %s", s)
	}
	if !strings.Contains(s, `width="200" height="100"`) {
		t.Fatalf("canvas size not carried: %s", s)
	}
	if !strings.Contains(s, "<circle") {
		t.Fatalf("no circle element: %s", s)
	}
	// Radius is bounded by the short axis; the circle sits centered.
	want := [4]int{50, 0, 100, 100}
	got := [4]int{bounds.Left, bounds.Top, bounds.Width, bounds.Height}
	if got != want {
		t.Fatalf("bounds %v, want %v", got, want)
	}
}

func TestMaskSVGEllipseFillsCanvas(t *testing.T) {
	doc, bounds := maskSVG(params.MaskEllipse, 200, 100)
	if !strings.Contains(string(doc), "<ellipse") {
		t.Fatalf("no ellipse element: %s", doc)
	}
	if bounds.Width != 200 || bounds.Height != 100 {
		t.Fatalf("ellipse must span the canvas, got %v", bounds)
	}
}

func TestMaskSVGPolygons(t *testing.T) {
	for _, shape := range []params.MaskShape{
		params.MaskTriangle, params.MaskTriangle180,
		params.MaskPentagon, params.MaskPentagon180,
		params.MaskHexagon, params.MaskSquare, params.MaskStar,
	} {
		doc, bounds := maskSVG(shape, 100, 100)
		s := string(doc)
		if !strings.Contains(s, "<polygon") {
			t.Errorf("%s: no polygon element: %s", shape, s)
		}
		if bounds.Width <= 0 || bounds.Height <= 0 {
			t.Errorf("%s: degenerate bounds %v", shape, bounds)
		}
		if bounds.Left < 0 || bounds.Top < 0 || bounds.Left+bounds.Width > 100 || bounds.Top+bounds.Height > 100 {
			t.Errorf("%s: bounds escape the canvas: %v", shape, bounds)
		}
	}
}

func TestMaskSVGStarVertexCount(t *testing.T) {
	doc, _ := maskSVG(params.MaskStar, 100, 100)
	s := string(doc)
	// Five outer plus five inner vertices.
	if got := strings.Count(s, ","); got != 10 {
		t.Fatalf("star has %d vertices, want 10 (%s)", got, s)
	}
}

func TestMaskSVGHeart(t *testing.T) {
	doc, _ := maskSVG(params.MaskHeart, 100, 100)
	s := string(doc)
	if !strings.Contains(s, "<path") || !strings.Contains(s, "C ") {
		t.Fatalf("heart must be a bezier path: %s", s)
	}
}

func TestMaskSVGNone(t *testing.T) {
	doc, bounds := maskSVG(params.MaskNone, 80, 60)
	if doc != nil {
		t.Fatalf("no shape must produce no document, got %s", doc)
	}
	if bounds.Width != 80 || bounds.Height != 60 {
		t.Fatalf("fallback bounds must cover the canvas, got %v", bounds)
	}
}
