// Package extract reads the glyph runs already present on a page of the
// source document and describes them as TextBlocks: string content,
// baseline position in PDF points, measured extent, font flags and the
// fill color attributed from the instruction stream.
package extract

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// Extract returns the text blocks of the given page (1-indexed) in
// document order. A document with no extractable text yields an empty
// slice, not an error; only an unreadable document fails.
func Extract(data []byte, pageNumber int) (blocks []models.TextBlock, err error) {
	// The underlying reader panics on malformed structures; extraction is
	// best-effort, so a panic degrades to an empty result.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extract: recovered from malformed document: %v", r)
			blocks, err = nil, nil
		}
	}()

	fb := filebuffer.New(data)
	rdr, err := pdflib.NewReader(fb, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	if pageNumber < 1 || pageNumber > rdr.NumPage() {
		return nil, nil
	}

	page := rdr.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}

	glyphs := page.Content().Text
	if len(glyphs) == 0 {
		return nil, nil
	}
	blocks = groupGlyphs(glyphs)

	// Color attribution runs over the raw instruction stream; if the
	// stream cannot be decoded the blocks keep the default black.
	if stream := rawContent(page); len(stream) > 0 {
		attributeColors(blocks, colorTimeline(stream))
	}
	return blocks, nil
}

// glyphGapFactor bounds the horizontal gap, relative to the font size,
// that still joins two glyphs into one block.
const glyphGapFactor = 0.75

// groupGlyphs merges per-glyph text entries into blocks. Glyphs join the
// current block while they share font and size, sit on the same baseline
// and follow without a large horizontal gap.
func groupGlyphs(glyphs []pdflib.Text) []models.TextBlock {
	var blocks []models.TextBlock
	var cur *models.TextBlock
	var curEnd float64
	var sb strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = sb.String()
		cur.Width = curEnd - cur.X
		if strings.TrimSpace(cur.Text) != "" {
			blocks = append(blocks, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		sameRun := cur != nil &&
			g.Font == cur.FontName &&
			g.FontSize == cur.FontSize &&
			math.Abs(g.Y-cur.Y) < 0.5 &&
			g.X >= curEnd-0.5 &&
			g.X-curEnd <= g.FontSize*glyphGapFactor

		if !sameRun {
			flush()
			bold, italic := FontFlags(g.Font)
			cur = &models.TextBlock{
				X:        g.X,
				Y:        g.Y,
				Height:   g.FontSize,
				FontName: g.Font,
				FontSize: g.FontSize,
				Bold:     bold,
				Italic:   italic,
			}
			curEnd = g.X
		}
		if g.X-curEnd > g.FontSize*0.2 && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		curEnd = g.X + g.W
	}
	flush()
	return blocks
}

// FontFlags infers bold and italic from font-name substrings, e.g.
// "ABCDEF+Arial-BoldMT" or "Helvetica-Oblique".
func FontFlags(fontName string) (bold, italic bool) {
	name := strings.ToLower(fontName)
	bold = strings.Contains(name, "bold") ||
		strings.Contains(name, "semibold") ||
		strings.Contains(name, "medium")
	italic = strings.Contains(name, "italic") || strings.Contains(name, "oblique")
	return bold, italic
}

// attributeColors assigns each block the fill color of the show event
// nearest its baseline. Events carry last-set-wins global color state, so
// attribution drifts when unrelated drawing operations interleave with
// text; that drift is part of the contract and callers tolerate it.
func attributeColors(blocks []models.TextBlock, events []showEvent) {
	if len(events) == 0 {
		return
	}
	for i := range blocks {
		blocks[i].Color = nearestEventColor(blocks[i], events)
	}
}

// nearestEventColor joins a glyph-run block to its show event. The
// spatial match exists only because blocks and events come from two
// different readers of the same stream (decoded glyphs vs. the operator
// scanner) and need correlating; it is not an attribution heuristic.
// The color itself is always the event's last-set-wins stream state.
func nearestEventColor(blk models.TextBlock, events []showEvent) models.RGB {
	best := -1
	bestDist := math.MaxFloat64
	for i, ev := range events {
		dy := math.Abs(ev.y - blk.Y)
		if dy > 1.5 {
			continue
		}
		dx := math.Abs(ev.x - blk.X)
		d := dy*10 + dx
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		// No positional match; keep stream order semantics by taking the
		// last color set in the stream.
		return events[len(events)-1].color
	}
	return events[best].color
}

// rawContent concatenates the decoded content stream(s) of a page.
func rawContent(page pdflib.Page) []byte {
	contents := page.V.Key("Contents")
	var out []byte
	readStream := func(v pdflib.Value) {
		if v.Kind() != pdflib.Stream {
			return
		}
		r := v.Reader()
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			log.Printf("extract: content stream read failed: %v", err)
			return
		}
		out = append(out, data...)
		out = append(out, '\n')
	}

	switch contents.Kind() {
	case pdflib.Stream:
		readStream(contents)
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			readStream(contents.Index(i))
		}
	}
	return out
}
