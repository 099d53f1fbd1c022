package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/mattetti/filebuffer"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// coverMargin widens the cover rectangle so the old glyphs are fully
// occluded without bleeding into neighboring table lines.
const coverMargin = 2.0

// ReplaceTextBlock edits an extracted glyph run in place: it paints an
// opaque cover rectangle over the old text on the current bytes, then
// draws the replacement string at the original baseline using the
// original weight, style, size and color. Unlike Recompose this path is
// append-only on top of the current bytes because it targets a single
// already-rendered run.
func (p *Pipeline) ReplaceTextBlock(current []byte, page int, blk models.TextBlock, newText string) ([]byte, error) {
	if page < 1 {
		page = 1
	}

	oldW := blk.Width
	newW := approxTextWidth(newText, blk.FontSize)
	coverW := math.Max(oldW, newW) + 2*coverMargin
	coverH := blk.Height*1.3 + coverMargin
	descent := blk.Height * 0.25

	coverWM, err := coverWatermark(coverW, coverH, blk.X-coverMargin, blk.Y-descent)
	if err != nil {
		return nil, fmt.Errorf("cover rectangle: %w", err)
	}

	textWM, err := replacementWatermark(blk, newText)
	if err != nil {
		return nil, fmt.Errorf("replacement text: %w", err)
	}

	pages := []string{fmt.Sprintf("%d", page)}

	var covered bytes.Buffer
	if err := pdfapi.AddWatermarks(filebuffer.New(current), &covered, pages, coverWM, p.conf); err != nil {
		return nil, fmt.Errorf("paint cover: %w", err)
	}

	var out bytes.Buffer
	if err := pdfapi.AddWatermarks(filebuffer.New(covered.Bytes()), &out, pages, textWM, p.conf); err != nil {
		return nil, fmt.Errorf("draw replacement: %w", err)
	}
	return out.Bytes(), nil
}

// coverWatermark renders a white PNG sized to the cover rectangle and
// turns it into an absolute-positioned image draw at 1px per point.
func coverWatermark(w, h, x, y float64) (*model.Watermark, error) {
	pw := int(math.Ceil(w))
	ph := int(math.Ceil(h))
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	wm, err := pdfapi.ImageWatermarkForReader(&buf, "scalefactor:1 abs, pos:bl, rot:0, op:1", true, false, types.POINTS)
	if err != nil {
		return nil, err
	}
	wm.Dx = x
	wm.Dy = y
	return wm, nil
}

// replacementWatermark draws newText with the block's original font
// weight, style, size and color. User-chosen size and color controls
// apply only to newly placed boxes, never to edits of existing text.
func replacementWatermark(blk models.TextBlock, newText string) (*model.Watermark, error) {
	size := int(blk.FontSize + 0.5)
	if size < 1 {
		size = 10
	}
	desc := fmt.Sprintf("font:%s, points:%d, scale:1 abs, pos:bl, rot:0, op:1, fillcolor:%s",
		coreFontFor(blk.Bold, blk.Italic), size, RGBToHex(blk.Color))
	wm, err := pdfapi.TextWatermark(newText, desc, true, false, types.POINTS)
	if err != nil {
		return nil, err
	}
	wm.Dx = blk.X
	wm.Dy = blk.Y
	return wm, nil
}

// coreFontFor maps inferred weight and style onto the closest standard
// font; the source document's exact face is not re-embedded.
func coreFontFor(bold, italic bool) string {
	switch {
	case bold && italic:
		return "Helvetica-BoldOblique"
	case bold:
		return "Helvetica-Bold"
	case italic:
		return "Helvetica-Oblique"
	default:
		return "Helvetica"
	}
}

// approxTextWidth estimates the width of a string without font metrics,
// half an em per glyph.
func approxTextWidth(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * fontSize * 0.5
}
