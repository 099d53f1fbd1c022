package geom

import (
	"math"
	"testing"
)

func TestToPDFSpace(t *testing.T) {
	tests := []struct {
		name       string
		in         Rect
		pageHeight float64
		scale      float64
		want       PDFRect
	}{
		{
			name:       "scale 1 on A4-ish page",
			in:         Rect{Left: 50, Top: 100, Width: 180, Height: 20},
			pageHeight: 842,
			scale:      1.0,
			want:       PDFRect{X: 50, Y: 722, Width: 180, Height: 20},
		},
		{
			name:       "zoomed in",
			in:         Rect{Left: 100, Top: 200, Width: 50, Height: 40},
			pageHeight: 792,
			scale:      2.0,
			want:       PDFRect{X: 50, Y: 792 - 100 - 20, Width: 25, Height: 20},
		},
		{
			name:       "zoomed out",
			in:         Rect{Left: 30, Top: 60, Width: 90, Height: 15},
			pageHeight: 600,
			scale:      0.5,
			want:       PDFRect{X: 60, Y: 600 - 120 - 30, Width: 180, Height: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPDFSpace(tt.in, tt.pageHeight, tt.scale)
			if !pdfRectClose(got, tt.want) {
				t.Errorf("ToPDFSpace(%+v, %v, %v) = %+v, want %+v",
					tt.in, tt.pageHeight, tt.scale, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	scales := []float64{0.5, 0.75, 1.0, 1.5, 2.0}
	heights := []float64{595, 792, 842, 1024}
	rects := []Rect{
		{Left: 0, Top: 0, Width: 10, Height: 10},
		{Left: 50, Top: 100, Width: 180, Height: 20},
		{Left: 123.4, Top: 567.8, Width: 42.42, Height: 13.37},
	}

	for _, s := range scales {
		for _, h := range heights {
			for _, r := range rects {
				back := ToScreenSpace(ToPDFSpace(r, h, s), h, s)
				if !rectClose(back, r) {
					t.Errorf("round trip at scale %v height %v: got %+v, want %+v", s, h, back, r)
				}
			}
		}
	}
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.1, 0.5},
		{0.5, 0.5},
		{1.0, 1.0},
		{2.0, 2.0},
		{3.7, 2.0},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.in); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func rectClose(a, b Rect) bool {
	return approxEqual(a.Left, b.Left) && approxEqual(a.Top, b.Top) &&
		approxEqual(a.Width, b.Width) && approxEqual(a.Height, b.Height)
}

func pdfRectClose(a, b PDFRect) bool {
	return approxEqual(a.X, b.X) && approxEqual(a.Y, b.Y) &&
		approxEqual(a.Width, b.Width) && approxEqual(a.Height, b.Height)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
