// Package session orchestrates editing gestures into annotation store
// mutations and triggers the recomposition pipeline at checkpoints:
// placement, drag release, text commit and image operations.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/annotstore"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/extract"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/geom"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/history"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/storage"
)

// Recomposer is the slice of the recomposition pipeline the session
// drives; satisfied by compose.Pipeline.
type Recomposer interface {
	Recompose(original []byte, boxes map[int][]models.Box, images map[int][]models.Image, scale float64) ([]byte, error)
	ReplaceTextBlock(current []byte, page int, blk models.TextBlock, newText string) ([]byte, error)
}

// uploadTimeout bounds the blob upload of a recomposed document. On
// expiry the session keeps an ephemeral reference and editing continues.
const uploadTimeout = 10 * time.Second

// Session is the server-side aggregate for one open document: the
// annotation store, the byte history and the current view. Handlers for
// one document run concurrently, so every operation takes the session
// lock; within an operation mutations are atomic.
type Session struct {
	mu sync.Mutex

	docID    string
	original []byte
	current  []byte
	url      string
	scale    float64
	tool     models.ToolMode
	revision int

	store    *annotstore.Store
	hist     *history.Stack
	blocks   []models.TextBlock
	pipeline Recomposer
	uploader storage.Uploader
}

// Manager owns the sessions of all open documents.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	pipeline Recomposer
	uploader storage.Uploader
}

func NewManager(pipeline Recomposer, uploader storage.Uploader) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		pipeline: pipeline,
		uploader: uploader,
	}
}

// Open creates (or replaces) the session for a document from its original
// bytes and the persisted annotation state.
func (m *Manager) Open(docID string, original []byte, state models.DocumentState) *Session {
	s := &Session{
		docID:    docID,
		original: append([]byte(nil), original...),
		current:  append([]byte(nil), original...),
		url:      state.PDFURL,
		scale:    1.0,
		tool:     models.ToolSelect,
		store:    annotstore.New(),
		hist:     history.New(),
		pipeline: m.pipeline,
		uploader: m.uploader,
	}
	s.store.Restore(state.Boxes, state.Images)
	s.hist.Push(original, state.PDFURL)
	if blocks, err := extract.Extract(original, 1); err == nil {
		s.blocks = blocks
	}

	m.mu.Lock()
	m.sessions[docID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session for a document, if one is open.
func (m *Manager) Get(docID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[docID]
	return s, ok
}

// Close drops the session for a document.
func (m *Manager) Close(docID string) {
	m.mu.Lock()
	delete(m.sessions, docID)
	m.mu.Unlock()
}

// SetScale clamps and stores the zoom factor.
func (s *Session) SetScale(scale float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = geom.ClampScale(scale)
	return s.scale
}

// SetTool switches the active tool mode.
func (s *Session) SetTool(tool models.ToolMode) {
	s.mu.Lock()
	s.tool = tool
	s.mu.Unlock()
}

// Current returns the bytes and URL of the latest recomposed view.
func (s *Session) Current() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.current...), s.url
}

// Blocks returns the text blocks extracted from the current bytes.
func (s *Session) Blocks() []models.TextBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TextBlock(nil), s.blocks...)
}

// Restore replaces the annotation set, used when the room cache holds a
// newer state than the session was opened with.
func (s *Session) Restore(state models.DocumentState) {
	s.mu.Lock()
	s.store.Restore(state.Boxes, state.Images)
	s.mu.Unlock()
}

// PlaceBox adds a box and recomposes.
func (s *Session) PlaceBox(ctx context.Context, page int, box models.Box) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.AddBox(page, box)
	return s.recompose(ctx)
}

// MoveBox commits a drag release and recomposes.
func (s *Session) MoveBox(ctx context.Context, page int, id string, left, top float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch := models.Patch{Op: models.PatchMoveTo, Left: &left, Top: &top}
	if _, err := s.store.UpdateBox(page, id, patch); err != nil {
		// Concurrent delete; nothing to draw.
		return nil
	}
	return s.recompose(ctx)
}

// EditBoxText commits an inline edit and recomposes.
func (s *Session) EditBoxText(ctx context.Context, page int, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch := models.Patch{Op: models.PatchSetText, Text: &text}
	if _, err := s.store.UpdateBox(page, id, patch); err != nil {
		return nil
	}
	return s.recompose(ctx)
}

// DeleteBox removes a box and recomposes.
func (s *Session) DeleteBox(ctx context.Context, page int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteBox(page, id); err != nil {
		return nil
	}
	return s.recompose(ctx)
}

// PlaceImage adds an image and recomposes.
func (s *Session) PlaceImage(ctx context.Context, page int, img models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.AddImage(page, img)
	return s.recompose(ctx)
}

// MoveImage commits an image drag release and recomposes.
func (s *Session) MoveImage(ctx context.Context, page int, id string, left, top float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch := models.Patch{Op: models.PatchMoveTo, Left: &left, Top: &top}
	if _, err := s.store.UpdateImage(page, id, patch); err != nil {
		return nil
	}
	return s.recompose(ctx)
}

// ResizeImage resizes via the drag handle, preserving aspect ratio: the
// new width dictates the height.
func (s *Session) ResizeImage(ctx context.Context, page int, id string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.store.FindImage(page, id)
	if !ok || img.Width <= 0 {
		return nil
	}
	height := width * img.Height / img.Width
	patch := models.Patch{Op: models.PatchResize, Width: &width, Height: &height}
	if _, err := s.store.UpdateImage(page, id, patch); err != nil {
		return nil
	}
	return s.recompose(ctx)
}

// DeleteImage removes an image and recomposes.
func (s *Session) DeleteImage(ctx context.Context, page int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.DeleteImage(page, id); err != nil {
		return nil
	}
	return s.recompose(ctx)
}

// Recompose rebuilds the view from the original bytes plus the session's
// current annotation set.
func (s *Session) Recompose(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompose(ctx)
}

// RecomposeWith replaces the annotation set and rebuilds in one step.
func (s *Session) RecomposeWith(ctx context.Context, state models.DocumentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Restore(state.Boxes, state.Images)
	return s.recompose(ctx)
}

// EditTextBlock replaces an extracted glyph run in place on the current
// bytes, then records the result like any other checkpoint.
func (s *Session) EditTextBlock(ctx context.Context, page int, blk models.TextBlock, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBytes, err := s.pipeline.ReplaceTextBlock(s.current, page, blk, newText)
	if err != nil {
		return fmt.Errorf("replace text block: %w", err)
	}
	s.commit(ctx, newBytes)
	return nil
}

// Undo steps the view back one snapshot.
func (s *Session) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hist.Undo()
	if err != nil {
		return "", err
	}
	s.restoreEntry(e)
	return s.url, nil
}

// Redo steps the view forward one snapshot.
func (s *Session) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hist.Redo()
	if err != nil {
		return "", err
	}
	s.restoreEntry(e)
	return s.url, nil
}

// URL returns the retrieval URL of the current view.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// recompose runs the pipeline and commits the result. Callers hold the
// lock. The pipeline itself cannot be cancelled; an in-flight run always
// completes or fails.
func (s *Session) recompose(ctx context.Context) error {
	newBytes, err := s.pipeline.Recompose(s.original, s.store.BoxesByPage(), s.store.ImagesByPage(), s.scale)
	if err != nil {
		return fmt.Errorf("recompose %s: %w", s.docID, err)
	}
	s.commit(ctx, newBytes)
	return nil
}

// commit uploads the new bytes, pushes the snapshot and refreshes the
// extracted blocks. Upload failure degrades to an ephemeral local
// reference so editing continues.
func (s *Session) commit(ctx context.Context, newBytes []byte) {
	s.revision++
	name := fmt.Sprintf("%s-r%d.pdf", s.docID, s.revision)

	uctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	url, err := s.uploader.Upload(uctx, name, newBytes, "application/pdf")
	if err != nil {
		log.Printf("session %s: upload failed, keeping ephemeral reference: %v", s.docID, err)
		url = "mem://" + name
	}

	s.current = newBytes
	s.url = url
	s.hist.Push(newBytes, url)

	blocks, err := extract.Extract(newBytes, 1)
	if err != nil {
		log.Printf("session %s: extraction failed: %v", s.docID, err)
		s.blocks = nil
		return
	}
	s.blocks = blocks
}

func (s *Session) restoreEntry(e history.Entry) {
	s.current = append([]byte(nil), e.Bytes...)
	s.url = e.URL
	blocks, err := extract.Extract(s.current, 1)
	if err != nil {
		s.blocks = nil
		return
	}
	s.blocks = blocks
}
