// Package storage implements the blob upload capability: it accepts raw
// bytes and returns a retrievable URL. The primary backend is GCS; a
// local-disk uploader serves both as the fallback when the bucket is
// unreachable and as the whole story for single-node deployments.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores a blob and returns the URL it can be retrieved from.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// LocalUploader writes blobs under a directory served statically at
// /files.
type LocalUploader struct {
	Dir string
}

func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{Dir: dir}, nil
}

func (u *LocalUploader) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	path := filepath.Join(u.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return "/files/" + filepath.Base(name), nil
}

// Load reads a previously uploaded blob back by its URL. Only local
// /files URLs are resolvable; anything else is the caller's problem.
func (u *LocalUploader) Load(url string) ([]byte, error) {
	return os.ReadFile(filepath.Join(u.Dir, filepath.Base(url)))
}

// Loader reads a previously stored blob back by its URL.
type Loader interface {
	Load(url string) ([]byte, error)
}

// RoutingLoader resolves bucket URLs through the remote loader and
// everything else from local disk.
type RoutingLoader struct {
	Remote Loader
	Local  Loader
}

func (l *RoutingLoader) Load(url string) ([]byte, error) {
	if l.Remote != nil && strings.HasPrefix(url, "https://") {
		return l.Remote.Load(url)
	}
	return l.Local.Load(url)
}

// FallbackUploader tries the primary and degrades to the fallback so
// editing can continue when the server-side store is unreachable. The
// degradation is logged, never surfaced as an error.
type FallbackUploader struct {
	Primary  Uploader
	Fallback Uploader
}

func (u *FallbackUploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if u.Primary != nil {
		url, err := u.Primary.Upload(ctx, name, data, contentType)
		if err == nil {
			return url, nil
		}
		log.Printf("storage: primary upload of %s failed, falling back: %v", name, err)
	}
	return u.Fallback.Upload(ctx, name, data, contentType)
}
