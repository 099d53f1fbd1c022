// Package compose rebuilds the document byte stream from the original
// bytes plus the current annotation set. Every run restarts from the
// original document so repeated edits never accumulate stale draw calls.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/mattetti/filebuffer"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/geom"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// Pipeline stamps annotations onto document pages through the pdfcpu
// codec. Safe for concurrent use; it holds only configuration.
type Pipeline struct {
	conf *model.Configuration
}

func New() *Pipeline {
	return &Pipeline{conf: model.NewDefaultConfiguration()}
}

// Recompose produces a new document byte stream with every box and image
// drawn onto its page. Decode or embed failures for a single annotation
// are logged and skipped; only a document-level failure aborts.
func (p *Pipeline) Recompose(original []byte, boxes map[int][]models.Box, images map[int][]models.Image, scale float64) ([]byte, error) {
	fb := filebuffer.New(original)
	dims, err := pdfapi.PageDims(fb, p.conf)
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}

	wmMap := p.buildWatermarkMap(dims, boxes, images, scale)
	if len(wmMap) == 0 {
		// Nothing to draw; the recomposed document is the original.
		return append([]byte(nil), original...), nil
	}

	if _, err := fb.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := pdfapi.AddWatermarksSliceMap(fb, &out, wmMap, p.conf); err != nil {
		return nil, fmt.Errorf("stamp annotations: %w", err)
	}
	return out.Bytes(), nil
}

// buildWatermarkMap converts the annotation set into per-page draw
// instructions. Per-annotation failures are isolated here.
func (p *Pipeline) buildWatermarkMap(dims []types.Dim, boxes map[int][]models.Box, images map[int][]models.Image, scale float64) map[int][]*model.Watermark {
	wmMap := make(map[int][]*model.Watermark)

	for page, list := range boxes {
		h, ok := pageHeight(dims, page)
		if !ok {
			log.Printf("compose: page %d out of range, skipping %d boxes", page, len(list))
			continue
		}
		for _, box := range list {
			if !box.HasContent() {
				continue
			}
			wm, err := boxWatermark(box, h, scale)
			if err != nil {
				log.Printf("compose: box %s on page %d skipped: %v", box.ID, page, err)
				continue
			}
			wmMap[page] = append(wmMap[page], wm)
		}
	}

	for page, list := range images {
		h, ok := pageHeight(dims, page)
		if !ok {
			log.Printf("compose: page %d out of range, skipping %d images", page, len(list))
			continue
		}
		for _, img := range list {
			wm, err := imageWatermark(img, h, scale)
			if err != nil {
				log.Printf("compose: image %s on page %d skipped: %v", img.ID, page, err)
				continue
			}
			wmMap[page] = append(wmMap[page], wm)
		}
	}

	return wmMap
}

func pageHeight(dims []types.Dim, page int) (float64, bool) {
	if page < 1 || page > len(dims) {
		return 0, false
	}
	return dims[page-1].Height, true
}

// boxWatermark builds the text draw instruction for one box, anchored at
// its PDF-space bottom-left corner.
func boxWatermark(box models.Box, pageHeightPt, scale float64) (*model.Watermark, error) {
	r := geom.ToPDFSpace(geom.Rect{
		Left: box.Left, Top: box.Top, Width: box.Width, Height: box.Height,
	}, pageHeightPt, scale)

	font := "Helvetica"
	if box.Bold {
		font = "Helvetica-Bold"
	}
	size := int(box.FontSize + 0.5)
	if size < 1 {
		size = 12
	}

	desc := fmt.Sprintf("font:%s, points:%d, scale:1 abs, pos:bl, rot:0, op:1, fillcolor:%s",
		font, size, HexColor(box.FontColor))
	wm, err := pdfapi.TextWatermark(box.Text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("text watermark: %w", err)
	}
	wm.Dx = r.X
	wm.Dy = r.Y
	return wm, nil
}

// imageWatermark builds the image draw instruction for one image,
// decode-checked by declared MIME type and scaled so the natural pixel
// size fills the PDF-space rectangle width (aspect ratio preserved).
func imageWatermark(img models.Image, pageHeightPt, scale float64) (*model.Watermark, error) {
	cfg, err := decodeImageConfig(img)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("image %s has zero width", img.ID)
	}

	r := geom.ToPDFSpace(geom.Rect{
		Left: img.Left, Top: img.Top, Width: img.Width, Height: img.Height,
	}, pageHeightPt, scale)

	factor := r.Width / float64(cfg.Width)
	desc := fmt.Sprintf("scalefactor:%.4f abs, pos:bl, rot:0, op:1", factor)
	wm, err := pdfapi.ImageWatermarkForReader(bytes.NewReader(img.Data), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("image watermark: %w", err)
	}
	wm.Dx = r.X
	wm.Dy = r.Y
	return wm, nil
}

// decodeImageConfig validates the image bytes against the declared MIME
// type. Unknown declared types are attempted as PNG.
func decodeImageConfig(img models.Image) (image.Config, error) {
	switch strings.ToLower(img.MimeType) {
	case "image/jpeg", "image/jpg":
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return image.Config{}, fmt.Errorf("decode jpeg: %w", err)
		}
		return cfg, nil
	case "image/png":
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return image.Config{}, fmt.Errorf("decode png: %w", err)
		}
		return cfg, nil
	default:
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return image.Config{}, fmt.Errorf("declared type %q not decodable as png: %w", img.MimeType, err)
		}
		return cfg, nil
	}
}

var hexColorRe = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)

// HexColor normalizes a user-supplied hex RGB string to "#rrggbb",
// falling back to black for anything unparseable.
func HexColor(s string) string {
	m := hexColorRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "#000000"
	}
	return "#" + strings.ToLower(m[1])
}

// RGBToHex converts a normalized 0-1 color to "#rrggbb".
func RGBToHex(c models.RGB) string {
	clamp := func(v float64) int {
		n := int(v*255 + 0.5)
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return n
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.R), clamp(c.G), clamp(c.B))
}
