package models

// Box represents a placed, editable text annotation. Position and size are
// in screen pixels at the session's current zoom scale; FontSize is in
// PDF points. The ID is unique within a document across all pages.
type Box struct {
	ID        string  `json:"id"`
	Page      int     `json:"pageNumber"`
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Text      string  `json:"text"`
	FontSize  float64 `json:"fontSize"`
	FontColor string  `json:"fontColor"`
	Bold      bool    `json:"bold"`
	Locked    bool    `json:"locked"`
}

// PlaceholderText is the initial content of a freshly placed box. Boxes
// still carrying it are not drawn during recomposition.
const PlaceholderText = "Type here"

// HasContent reports whether the box carries user-entered text worth drawing.
func (b Box) HasContent() bool {
	return b.Text != "" && b.Text != PlaceholderText
}

// Image represents a placed raster annotation. Data holds the raw image
// bytes; MimeType is the declared type (image/png or image/jpeg). Preview
// is a locally-resolvable reference used by viewers, never by the pipeline.
type Image struct {
	ID       string  `json:"id"`
	Page     int     `json:"pageNumber"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Data     []byte  `json:"data,omitempty"`
	MimeType string  `json:"mimeType"`
	Preview  string  `json:"preview,omitempty"`
}

// RGB is a fill color normalized to the 0-1 range.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// TextBlock describes a glyph run already present in the source document.
// X and Y are the baseline position in PDF point space. Read-only; edits
// to a block go through the inline replacement path, not the box store.
type TextBlock struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontName string  `json:"fontName"`
	FontSize float64 `json:"fontSize"`
	Bold     bool    `json:"bold"`
	Italic   bool    `json:"italic"`
	Color    RGB     `json:"color"`
}

// ToolMode is the active editing tool of a session.
type ToolMode string

const (
	ToolSelect ToolMode = "select"
	ToolText   ToolMode = "text"
	ToolImage  ToolMode = "image"
	ToolDelete ToolMode = "delete"
)
