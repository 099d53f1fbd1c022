package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentRepo struct {
	db *gorm.DB
}

type DocumentRepoInterface interface {
	GetDocument(docID string) (models.DocumentState, error)
	SaveDocument(docID string, state models.DocumentState) error
	DeleteDocument(docID string) error
}

// NewDocumentRepository returns a new instance of DocumentRepo
func NewDocumentRepository(db *gorm.DB) DocumentRepoInterface {
	return &DocumentRepo{db: db}
}

// GetDocument loads the persisted annotation state. An unknown document
// yields empty defaults, not an error.
func (r *DocumentRepo) GetDocument(docID string) (models.DocumentState, error) {
	var record models.DocumentRecord
	result := r.db.Where("doc_id = ?", docID).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.EmptyDocumentState(), nil
	} else if result.Error != nil {
		return models.DocumentState{}, result.Error
	}

	state := models.EmptyDocumentState()
	state.PDFURL = record.PDFURL
	if len(record.Boxes) > 0 {
		if err := json.Unmarshal(record.Boxes, &state.Boxes); err != nil {
			return models.DocumentState{}, fmt.Errorf("decode boxes for %s: %w", docID, err)
		}
	}
	if len(record.Images) > 0 {
		if err := json.Unmarshal(record.Images, &state.Images); err != nil {
			return models.DocumentState{}, fmt.Errorf("decode images for %s: %w", docID, err)
		}
	}
	return state, nil
}

// SaveDocument upserts the annotation state. Fields absent from the
// incoming state keep their stored value, so a boxes-only save does not
// wipe the images.
func (r *DocumentRepo) SaveDocument(docID string, state models.DocumentState) error {
	record := models.DocumentRecord{
		DocID:         docID,
		PDFURL:        state.PDFURL,
		SchemaVersion: models.SchemaVersion,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if state.Boxes != nil {
		bytes, err := json.Marshal(state.Boxes)
		if err != nil {
			return err
		}
		record.Boxes = datatypes.JSON(bytes)
	}
	if state.Images != nil {
		bytes, err := json.Marshal(state.Images)
		if err != nil {
			return err
		}
		record.Images = datatypes.JSON(bytes)
	}

	var existing models.DocumentRecord
	result := r.db.Where("doc_id = ?", docID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return r.db.Create(&record).Error
	} else if result.Error != nil {
		return result.Error
	}

	// preserve original CreatedAt
	record.CreatedAt = existing.CreatedAt
	if record.PDFURL == "" {
		record.PDFURL = existing.PDFURL
	}
	if record.Boxes == nil {
		record.Boxes = existing.Boxes
	}
	if record.Images == nil {
		record.Images = existing.Images
	}

	return r.db.Model(&existing).Updates(&record).Error
}

func (r *DocumentRepo) DeleteDocument(docID string) error {
	return r.db.Where("doc_id = ?", docID).Delete(&models.DocumentRecord{}).Error
}

// MemoryDocumentRepo keeps states in process memory for runs without a
// database.
type MemoryDocumentRepo struct {
	mu     sync.Mutex
	states map[string]models.DocumentState
}

func NewMemoryDocumentRepository() DocumentRepoInterface {
	return &MemoryDocumentRepo{states: make(map[string]models.DocumentState)}
}

func (r *MemoryDocumentRepo) GetDocument(docID string) (models.DocumentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[docID]
	if !ok {
		return models.EmptyDocumentState(), nil
	}
	return state, nil
}

func (r *MemoryDocumentRepo) SaveDocument(docID string, state models.DocumentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.states[docID]
	if !ok {
		r.states[docID] = state
		return nil
	}
	if state.PDFURL == "" {
		state.PDFURL = existing.PDFURL
	}
	if state.Boxes == nil {
		state.Boxes = existing.Boxes
	}
	if state.Images == nil {
		state.Images = existing.Images
	}
	r.states[docID] = state
	return nil
}

func (r *MemoryDocumentRepo) DeleteDocument(docID string) error {
	r.mu.Lock()
	delete(r.states, docID)
	r.mu.Unlock()
	return nil
}
