package models

import "fmt"

// PatchOp tags a partial update to a box or image. Patches arrive from the
// sync channel as arbitrary JSON and are validated at the boundary before
// they are merged onto the target entity.
type PatchOp string

const (
	PatchMoveTo   PatchOp = "move"
	PatchResize   PatchOp = "resize"
	PatchSetText  PatchOp = "set_text"
	PatchSetStyle PatchOp = "set_style"
	PatchSetLock  PatchOp = "set_lock"
)

// Patch is a tagged partial update. Only the fields relevant to Op are
// consulted; pointer fields distinguish "absent" from zero values so a
// style patch can change the color without touching the size.
type Patch struct {
	Op PatchOp `json:"op"`

	Left *float64 `json:"left,omitempty"`
	Top  *float64 `json:"top,omitempty"`

	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	Text *string `json:"text,omitempty"`

	FontSize  *float64 `json:"fontSize,omitempty"`
	FontColor *string  `json:"fontColor,omitempty"`
	Bold      *bool    `json:"bold,omitempty"`

	Locked *bool `json:"locked,omitempty"`
}

// Validate checks that the patch carries the fields its op requires.
func (p Patch) Validate() error {
	switch p.Op {
	case PatchMoveTo:
		if p.Left == nil || p.Top == nil {
			return fmt.Errorf("move patch requires left and top")
		}
	case PatchResize:
		if p.Width == nil || p.Height == nil {
			return fmt.Errorf("resize patch requires width and height")
		}
	case PatchSetText:
		if p.Text == nil {
			return fmt.Errorf("set_text patch requires text")
		}
	case PatchSetStyle:
		if p.FontSize == nil && p.FontColor == nil && p.Bold == nil {
			return fmt.Errorf("set_style patch requires at least one style field")
		}
	case PatchSetLock:
		if p.Locked == nil {
			return fmt.Errorf("set_lock patch requires locked")
		}
	default:
		return fmt.Errorf("unknown patch op %q", p.Op)
	}
	return nil
}

// ApplyToBox shallow-merges the patch onto the box.
func (p Patch) ApplyToBox(b *Box) {
	if p.Left != nil {
		b.Left = *p.Left
	}
	if p.Top != nil {
		b.Top = *p.Top
	}
	if p.Width != nil {
		b.Width = *p.Width
	}
	if p.Height != nil {
		b.Height = *p.Height
	}
	if p.Text != nil {
		b.Text = *p.Text
	}
	if p.FontSize != nil {
		b.FontSize = *p.FontSize
	}
	if p.FontColor != nil {
		b.FontColor = *p.FontColor
	}
	if p.Bold != nil {
		b.Bold = *p.Bold
	}
	if p.Locked != nil {
		b.Locked = *p.Locked
	}
}

// ApplyToImage shallow-merges the patch onto the image. Text and style
// fields have no meaning for images and are ignored.
func (p Patch) ApplyToImage(img *Image) {
	if p.Left != nil {
		img.Left = *p.Left
	}
	if p.Top != nil {
		img.Top = *p.Top
	}
	if p.Width != nil {
		img.Width = *p.Width
	}
	if p.Height != nil {
		img.Height = *p.Height
	}
}
