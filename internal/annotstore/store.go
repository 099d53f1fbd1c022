// Package annotstore holds the authoritative in-memory annotation model
// of a document: boxes and images keyed by page number. It is a pure data
// structure; it never talks to the network or the codec.
package annotstore

import (
	"errors"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// ErrNotFound reports an update or delete against an identifier that is
// not present. This is expected under concurrent delete/update races and
// callers treat it as a no-op, not a failure.
var ErrNotFound = errors.New("annotation not found")

// Store keeps per-page lists of boxes and images. Mutations preserve
// insertion order within a page. Store is not safe for concurrent use;
// the owning session serializes access.
type Store struct {
	boxes  map[int][]models.Box
	images map[int][]models.Image
}

func New() *Store {
	return &Store{
		boxes:  make(map[int][]models.Box),
		images: make(map[int][]models.Image),
	}
}

// AddBox appends a box to the page and returns the updated page list.
func (s *Store) AddBox(page int, box models.Box) []models.Box {
	s.boxes[page] = append(s.boxes[page], box)
	return s.boxes[page]
}

// UpdateBox applies a validated patch to the box with the given id.
// Returns ErrNotFound if the id is absent on that page.
func (s *Store) UpdateBox(page int, id string, patch models.Patch) ([]models.Box, error) {
	list := s.boxes[page]
	for i := range list {
		if list[i].ID == id {
			patch.ApplyToBox(&list[i])
			return list, nil
		}
	}
	return list, ErrNotFound
}

// DeleteBox removes the box with the given id from the page.
func (s *Store) DeleteBox(page int, id string) ([]models.Box, error) {
	list := s.boxes[page]
	for i := range list {
		if list[i].ID == id {
			s.boxes[page] = append(list[:i:i], list[i+1:]...)
			return s.boxes[page], nil
		}
	}
	return list, ErrNotFound
}

// AddImage appends an image to the page and returns the updated page list.
func (s *Store) AddImage(page int, img models.Image) []models.Image {
	s.images[page] = append(s.images[page], img)
	return s.images[page]
}

// UpdateImage applies a validated patch to the image with the given id.
func (s *Store) UpdateImage(page int, id string, patch models.Patch) ([]models.Image, error) {
	list := s.images[page]
	for i := range list {
		if list[i].ID == id {
			patch.ApplyToImage(&list[i])
			return list, nil
		}
	}
	return list, ErrNotFound
}

// DeleteImage removes the image with the given id from the page.
func (s *Store) DeleteImage(page int, id string) ([]models.Image, error) {
	list := s.images[page]
	for i := range list {
		if list[i].ID == id {
			s.images[page] = append(list[:i:i], list[i+1:]...)
			return s.images[page], nil
		}
	}
	return list, ErrNotFound
}

// ApplyRemoteAddBox mirrors AddBox for mutations arriving from the sync
// channel. The remote variants exist so call sites distinguish local
// gestures from relayed ones; the store semantics are identical.
func (s *Store) ApplyRemoteAddBox(page int, box models.Box) []models.Box {
	return s.AddBox(page, box)
}

func (s *Store) ApplyRemoteUpdateBox(page int, id string, patch models.Patch) ([]models.Box, error) {
	return s.UpdateBox(page, id, patch)
}

func (s *Store) ApplyRemoteDeleteBox(page int, id string) ([]models.Box, error) {
	return s.DeleteBox(page, id)
}

func (s *Store) ApplyRemoteAddImage(page int, img models.Image) []models.Image {
	return s.AddImage(page, img)
}

func (s *Store) ApplyRemoteUpdateImage(page int, id string, patch models.Patch) ([]models.Image, error) {
	return s.UpdateImage(page, id, patch)
}

func (s *Store) ApplyRemoteDeleteImage(page int, id string) ([]models.Image, error) {
	return s.DeleteImage(page, id)
}

// Boxes returns the box list for a page.
func (s *Store) Boxes(page int) []models.Box {
	return s.boxes[page]
}

// Images returns the image list for a page.
func (s *Store) Images(page int) []models.Image {
	return s.images[page]
}

// BoxesByPage returns a copy of the full page-keyed box map.
func (s *Store) BoxesByPage() map[int][]models.Box {
	out := make(map[int][]models.Box, len(s.boxes))
	for page, list := range s.boxes {
		out[page] = append([]models.Box(nil), list...)
	}
	return out
}

// ImagesByPage returns a copy of the full page-keyed image map.
func (s *Store) ImagesByPage() map[int][]models.Image {
	out := make(map[int][]models.Image, len(s.images))
	for page, list := range s.images {
		out[page] = append([]models.Image(nil), list...)
	}
	return out
}

// Restore replaces the store contents, used when bootstrapping a session
// from persisted state. Nil maps reset to empty.
func (s *Store) Restore(boxes map[int][]models.Box, images map[int][]models.Image) {
	s.boxes = make(map[int][]models.Box)
	s.images = make(map[int][]models.Image)
	for page, list := range boxes {
		s.boxes[page] = append([]models.Box(nil), list...)
	}
	for page, list := range images {
		s.images[page] = append([]models.Image(nil), list...)
	}
}

// FindBox returns the box with the given id on the page, if present.
func (s *Store) FindBox(page int, id string) (models.Box, bool) {
	for _, b := range s.boxes[page] {
		if b.ID == id {
			return b, true
		}
	}
	return models.Box{}, false
}

// FindImage returns the image with the given id on the page, if present.
func (s *Store) FindImage(page int, id string) (models.Image, bool) {
	for _, img := range s.images[page] {
		if img.ID == id {
			return img, true
		}
	}
	return models.Image{}, false
}
