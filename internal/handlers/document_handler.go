package handlers

import (
	"log"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/repo"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/session"

	"github.com/gofiber/fiber/v2"
)

// OriginalLoader fetches previously uploaded bytes by their URL so a
// session can be reopened after a restart.
type OriginalLoader interface {
	Load(url string) ([]byte, error)
}

// for simple crud operations service layer is not required
type DocumentHandler struct {
	repo     repo.DocumentRepoInterface
	sessions *session.Manager
	loader   OriginalLoader
}

func NewDocumentHandler(repo repo.DocumentRepoInterface, sessions *session.Manager, loader OriginalLoader) *DocumentHandler {
	return &DocumentHandler{
		repo:     repo,
		sessions: sessions,
		loader:   loader,
	}
}

// function to get the persisted annotation state of a document
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	state, err := h.repo.GetDocument(docID)
	if err != nil {
		log.Println(err, "Error getting document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get document",
		})
	}

	// An open session holds a fresher view URL than the stored record.
	if s, ok := h.sessions.Get(docID); ok {
		state.PDFURL = s.URL()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"boxes":  state.Boxes,
		"images": state.Images,
		"pdfUrl": state.PDFURL,
	})
}

// function to save the annotation state of a document
func (h *DocumentHandler) SaveDocument(c *fiber.Ctx) error {
	docID := c.Params("docId")

	var dto struct {
		Boxes  map[int][]models.Box   `json:"boxes"`
		Images map[int][]models.Image `json:"images"`
		PDFURL string                 `json:"pdfUrl"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	state := models.DocumentState{
		Boxes:  dto.Boxes,
		Images: dto.Images,
		PDFURL: dto.PDFURL,
	}
	if err := h.repo.SaveDocument(docID, state); err != nil {
		log.Println(err, "Error saving document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save document",
		})
	}

	// Keep an open session in step with the saved state.
	if s, ok := h.sessions.Get(docID); ok {
		merged, err := h.repo.GetDocument(docID)
		if err == nil {
			s.Restore(merged)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Document saved successfully",
	})
}

// function to rebuild the document view from its original bytes
func (h *DocumentHandler) Recompose(c *fiber.Ctx) error {
	s, errResp := h.openSession(c)
	if s == nil {
		return errResp
	}

	var dto struct {
		Scale  *float64               `json:"scale"`
		Boxes  map[int][]models.Box   `json:"boxes"`
		Images map[int][]models.Image `json:"images"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&dto); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}
	if dto.Scale != nil {
		s.SetScale(*dto.Scale)
	}

	var err error
	if dto.Boxes != nil || dto.Images != nil {
		state := models.DocumentState{Boxes: dto.Boxes, Images: dto.Images}
		if state.Boxes == nil {
			state.Boxes = map[int][]models.Box{}
		}
		if state.Images == nil {
			state.Images = map[int][]models.Image{}
		}
		err = s.RecomposeWith(c.Context(), state)
	} else {
		err = s.Recompose(c.Context())
	}
	if err != nil {
		log.Println(err, "Error recomposing document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to recompose document",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"url": s.URL(),
	})
}

// function to step the view back one snapshot
func (h *DocumentHandler) Undo(c *fiber.Ctx) error {
	s, errResp := h.openSession(c)
	if s == nil {
		return errResp
	}

	url, err := s.Undo()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Nothing to undo",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"url": url,
	})
}

// function to step the view forward one snapshot
func (h *DocumentHandler) Redo(c *fiber.Ctx) error {
	s, errResp := h.openSession(c)
	if s == nil {
		return errResp
	}

	url, err := s.Redo()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Nothing to redo",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"url": url,
	})
}

// function to list the text blocks extracted from the current view
func (h *DocumentHandler) GetBlocks(c *fiber.Ctx) error {
	s, errResp := h.openSession(c)
	if s == nil {
		return errResp
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"blocks": s.Blocks(),
	})
}

// function to replace one extracted text block in place
func (h *DocumentHandler) ReplaceBlock(c *fiber.Ctx) error {
	s, errResp := h.openSession(c)
	if s == nil {
		return errResp
	}

	var dto struct {
		PageNumber int              `json:"pageNumber"`
		Block      models.TextBlock `json:"block"`
		NewText    string           `json:"newText"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if dto.PageNumber < 1 {
		dto.PageNumber = 1
	}

	if err := s.EditTextBlock(c.Context(), dto.PageNumber, dto.Block, dto.NewText); err != nil {
		log.Println(err, "Error replacing text block")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to replace text block",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"url": s.URL(),
	})
}

// openSession returns the open session for the docId param, reopening it
// from the stored original when the server was restarted. On failure it
// writes the error response and returns nil.
func (h *DocumentHandler) openSession(c *fiber.Ctx) (*session.Session, error) {
	docID := c.Params("docId")
	if docID == "" {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if s, ok := h.sessions.Get(docID); ok {
		return s, nil
	}

	state, err := h.repo.GetDocument(docID)
	if err != nil {
		log.Println(err, "Error getting document")
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get document",
		})
	}
	if state.PDFURL == "" {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document has no uploaded PDF",
		})
	}

	original, err := h.loader.Load(state.PDFURL)
	if err != nil {
		log.Println(err, "Error loading original PDF")
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Original PDF not available",
		})
	}

	return h.sessions.Open(docID, original, state), nil
}
