package v1

import (
	"context"
	"log"
	"os"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/compose"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/config"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/handlers"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/libraries"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/repo"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/session"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/storage"

	"github.com/gofiber/fiber/v2"
)

func registerDocument(r fiber.Router) {
	// Initialize handler
	docRepo := newDocumentRepo()
	uploader, loader := newUploader()
	sessions := session.NewManager(compose.New(), uploader)

	docHandler := handlers.NewDocumentHandler(docRepo, sessions, loader)
	uploadHandler := handlers.NewUploadHandler(uploader)

	// Register routes
	r.Post("/upload", uploadHandler.Upload)
	r.Get("/doc/:docId", docHandler.GetDocument)
	r.Post("/doc/:docId", docHandler.SaveDocument)
	r.Post("/doc/:docId/recompose", docHandler.Recompose)
	r.Post("/doc/:docId/undo", docHandler.Undo)
	r.Post("/doc/:docId/redo", docHandler.Redo)
	r.Get("/doc/:docId/blocks", docHandler.GetBlocks)
	r.Post("/doc/:docId/blocks/replace", docHandler.ReplaceBlock)
}

func newDocumentRepo() repo.DocumentRepoInterface {
	if config.DB != nil {
		return repo.NewDocumentRepository(config.DB)
	}
	log.Println("no database configured, documents live in process memory")
	return repo.NewMemoryDocumentRepository()
}

// newUploader builds the blob store: GCS with local fallback when bucket
// credentials are configured, local disk alone otherwise.
func newUploader() (storage.Uploader, handlers.OriginalLoader) {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "temp/uploads"
	}
	local, err := storage.NewLocalUploader(dir)
	if err != nil {
		log.Fatalf("failed to init upload dir: %v", err)
	}

	clients, err := libraries.NewClients(context.Background())
	if err != nil {
		log.Printf("bucket storage unavailable, uploads stay on local disk: %v", err)
		return local, local
	}

	gcs := storage.NewGCSUploader(clients.GCS, clients.Bucket)
	uploader := &storage.FallbackUploader{Primary: gcs, Fallback: local}
	loader := &storage.RoutingLoader{Remote: gcs, Local: local}
	return uploader, loader
}
