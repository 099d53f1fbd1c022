// Package geom maps annotation rectangles between screen pixel space
// (top-left origin, scaled by the session zoom factor) and PDF point
// space (bottom-left origin, unscaled).
package geom

// Rect is a position and size in screen pixels, top-left origin.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// PDFRect is a position and size in PDF points, bottom-left origin.
// X and Y anchor the rectangle's bottom-left corner.
type PDFRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

const (
	MinScale = 0.5
	MaxScale = 2.0
)

// ClampScale bounds a zoom factor to the supported range.
func ClampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// ToPDFSpace converts a screen rectangle to PDF points. The vertical
// origin flips and the rectangle's own height is subtracted so the anchor
// lands on the bottom edge.
func ToPDFSpace(r Rect, pageHeightPt, scale float64) PDFRect {
	return PDFRect{
		X:      r.Left / scale,
		Y:      pageHeightPt - r.Top/scale - r.Height/scale,
		Width:  r.Width / scale,
		Height: r.Height / scale,
	}
}

// ToScreenSpace is the inverse of ToPDFSpace, used when placing overlay
// hit-targets for extracted text blocks.
func ToScreenSpace(p PDFRect, pageHeightPt, scale float64) Rect {
	return Rect{
		Left:   p.X * scale,
		Top:    (pageHeightPt - p.Y - p.Height) * scale,
		Width:  p.Width * scale,
		Height: p.Height * scale,
	}
}
