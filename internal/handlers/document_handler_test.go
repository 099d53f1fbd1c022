package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/repo"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/session"

	"github.com/gofiber/fiber/v2"
)

func pngFileBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type stampRecomposer struct{}

func (stampRecomposer) Recompose(original []byte, boxes map[int][]models.Box, images map[int][]models.Image, scale float64) ([]byte, error) {
	return append(append([]byte(nil), original...), []byte("+stamped")...), nil
}

func (stampRecomposer) ReplaceTextBlock(current []byte, page int, blk models.TextBlock, newText string) ([]byte, error) {
	return append(append([]byte(nil), current...), []byte("+"+newText)...), nil
}

type mapLoader map[string][]byte

func (m mapLoader) Load(url string) ([]byte, error) {
	data, ok := m[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func newDocApp(t *testing.T) (*fiber.App, repo.DocumentRepoInterface) {
	t.Helper()
	docRepo := repo.NewMemoryDocumentRepository()

	state := models.EmptyDocumentState()
	state.PDFURL = "/files/original.pdf"
	if err := docRepo.SaveDocument("doc-1", state); err != nil {
		t.Fatal(err)
	}

	sessions := session.NewManager(stampRecomposer{}, &recordingUploader{})
	loader := mapLoader{"/files/original.pdf": []byte("%PDF-1.4 original")}
	h := NewDocumentHandler(docRepo, sessions, loader)

	app := fiber.New()
	app.Get("/doc/:docId", h.GetDocument)
	app.Post("/doc/:docId", h.SaveDocument)
	app.Post("/doc/:docId/recompose", h.Recompose)
	app.Post("/doc/:docId/undo", h.Undo)
	app.Post("/doc/:docId/redo", h.Redo)
	app.Get("/doc/:docId/blocks", h.GetBlocks)
	return app, docRepo
}

func TestGetDocumentUnknownReturnsEmptyDefaults(t *testing.T) {
	app, _ := newDocApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/doc/unknown", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Boxes  map[int][]models.Box   `json:"boxes"`
		Images map[int][]models.Image `json:"images"`
		PDFURL string                 `json:"pdfUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Boxes) != 0 || len(body.Images) != 0 || body.PDFURL != "" {
		t.Errorf("body = %+v, want empty defaults", body)
	}
}

func TestSaveDocumentMergesMissingFields(t *testing.T) {
	app, docRepo := newDocApp(t)

	payload := `{"boxes": {"1": [{"id": "b1", "pageNumber": 1, "text": "hi"}]}}`
	req := httptest.NewRequest(http.MethodPost, "/doc/doc-1", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	state, err := docRepo.GetDocument("doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if state.PDFURL != "/files/original.pdf" {
		t.Errorf("pdfUrl = %q, a boxes-only save must keep the stored url", state.PDFURL)
	}
	if len(state.Boxes[1]) != 1 {
		t.Errorf("boxes = %v", state.Boxes)
	}
}

func TestRecomposeReturnsURL(t *testing.T) {
	app, _ := newDocApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/doc/doc-1/recompose", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.URL == "" {
		t.Error("want a url for the recomposed view")
	}
}

func TestUndoWithoutHistoryConflicts(t *testing.T) {
	app, _ := newDocApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/doc/doc-1/undo", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestUndoAfterRecompose(t *testing.T) {
	app, _ := newDocApp(t)

	if _, err := app.Test(httptest.NewRequest(http.MethodPost, "/doc/doc-1/recompose", nil)); err != nil {
		t.Fatal(err)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/doc/doc-1/undo", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRecomposeWithoutUploadConflictsNotFound(t *testing.T) {
	app, _ := newDocApp(t)

	// No PDF was ever uploaded for this document.
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/doc/fresh/recompose", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
