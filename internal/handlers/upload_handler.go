package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MaxUploadBytes caps incoming files. Oversized uploads are rejected
// before anything touches disk or the bucket.
const MaxUploadBytes = 20 << 20

type UploadHandler struct {
	uploader storage.Uploader
}

func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload accepts one multipart file. The content type is sniffed from
// the bytes, not taken from the form; only PDF, PNG and JPEG pass.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	if fileHeader.Size > MaxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File too large",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Println(err, "Error opening uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		log.Println(err, "Error reading uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}
	if len(data) > MaxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File too large",
		})
	}

	mimeType := http.DetectContentType(data)
	ext, ok := allowedUploadTypes[mimeType]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type: " + mimeType,
		})
	}

	id := uuid.NewString()
	url, err := h.uploader.Upload(c.Context(), id+ext, data, mimeType)
	if err != nil {
		log.Println(err, "Error storing uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}

	resp := fiber.Map{"url": url}
	if mimeType == "application/pdf" {
		resp["docId"] = id
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

var allowedUploadTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}
