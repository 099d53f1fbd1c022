package repo

import (
	"testing"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryRepoUnknownDocumentYieldsEmptyDefaults(t *testing.T) {
	r := NewMemoryDocumentRepository()

	state, err := r.GetDocument("nope")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(models.EmptyDocumentState(), state); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryRepoSaveMergesMissingFields(t *testing.T) {
	r := NewMemoryDocumentRepository()

	full := models.DocumentState{
		Boxes:  map[int][]models.Box{1: {{ID: "b1", Page: 1, Text: "hi"}}},
		Images: map[int][]models.Image{2: {{ID: "i1", Page: 2}}},
		PDFURL: "/files/a.pdf",
	}
	if err := r.SaveDocument("d", full); err != nil {
		t.Fatal(err)
	}

	// A boxes-only save must not wipe images or the url.
	update := models.DocumentState{
		Boxes: map[int][]models.Box{1: {{ID: "b1", Page: 1, Text: "edited"}}},
	}
	if err := r.SaveDocument("d", update); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetDocument("d")
	if err != nil {
		t.Fatal(err)
	}
	if got.PDFURL != "/files/a.pdf" {
		t.Errorf("pdfUrl = %q", got.PDFURL)
	}
	if len(got.Images[2]) != 1 {
		t.Errorf("images = %v", got.Images)
	}
	if got.Boxes[1][0].Text != "edited" {
		t.Errorf("boxes = %v", got.Boxes)
	}
}

func TestMemoryRepoDelete(t *testing.T) {
	r := NewMemoryDocumentRepository()
	if err := r.SaveDocument("d", models.DocumentState{PDFURL: "/files/a.pdf"}); err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteDocument("d"); err != nil {
		t.Fatal(err)
	}
	state, err := r.GetDocument("d")
	if err != nil {
		t.Fatal(err)
	}
	if state.PDFURL != "" {
		t.Errorf("state = %+v, want defaults after delete", state)
	}
}
