package models

import (
	"time"

	"gorm.io/datatypes"
)

// SchemaVersion is stamped on every persisted document record so a later
// layout change can migrate old rows instead of guessing.
const SchemaVersion = 1

// DocumentRecord is the database model for a document's annotation state.
// Boxes and Images hold the page-number-keyed lists as JSON.
type DocumentRecord struct {
	DocID         string         `gorm:"primarykey" json:"docId"`
	Boxes         datatypes.JSON `json:"boxes"`
	Images        datatypes.JSON `json:"images"`
	PDFURL        string         `json:"pdfUrl"`
	SchemaVersion int            `gorm:"default:1" json:"schemaVersion"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DocumentState is the wire shape of a document's annotation state, as
// served by GET /doc/:id and accepted by POST /doc/:id.
type DocumentState struct {
	Boxes  map[int][]Box   `json:"boxes"`
	Images map[int][]Image `json:"images"`
	PDFURL string          `json:"pdfUrl"`
}

// EmptyDocumentState returns a state with non-nil maps, the default shape
// for documents that were never saved.
func EmptyDocumentState() DocumentState {
	return DocumentState{
		Boxes:  make(map[int][]Box),
		Images: make(map[int][]Image),
	}
}
