package rooms

import (
	"testing"
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

func TestGetCreatesLazily(t *testing.T) {
	m := NewMemoryStore()
	st := m.Get("doc-1")
	if st.Boxes == nil || st.Images == nil {
		t.Fatal("expected non-nil maps for fresh room")
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1", m.Len())
	}
}

func TestMergeThenGet(t *testing.T) {
	m := NewMemoryStore()
	m.Merge("doc-1", func(st *State) {
		st.ApplyBoxAdd(1, models.Box{ID: "b1", Text: "hi"})
		st.PDFURL = "/files/doc-1.pdf"
	})

	st := m.Get("doc-1")
	if len(st.Boxes[1]) != 1 || st.Boxes[1][0].ID != "b1" {
		t.Fatalf("cached box missing: %+v", st.Boxes)
	}
	if st.PDFURL != "/files/doc-1.pdf" {
		t.Errorf("pdfUrl = %q", st.PDFURL)
	}

	// Get returns a snapshot, not the live state.
	st.Boxes[1][0].Text = "mutated"
	if m.Get("doc-1").Boxes[1][0].Text != "hi" {
		t.Error("Get must return a defensive snapshot")
	}
}

func TestUpdateMissingIDIgnored(t *testing.T) {
	m := NewMemoryStore()
	locked := true
	m.Merge("doc-1", func(st *State) {
		st.ApplyBoxUpdate(1, "ghost", models.Patch{Op: models.PatchSetLock, Locked: &locked})
	})
	if len(m.Get("doc-1").Boxes[1]) != 0 {
		t.Error("update of unknown id must not create entries")
	}
}

func TestDeleteImage(t *testing.T) {
	m := NewMemoryStore()
	m.Merge("d", func(st *State) {
		st.ApplyImageAdd(2, models.Image{ID: "i1"})
		st.ApplyImageAdd(2, models.Image{ID: "i2"})
		st.ApplyImageDelete(2, "i1")
	})
	imgs := m.Get("d").Images[2]
	if len(imgs) != 1 || imgs[0].ID != "i2" {
		t.Errorf("expected only i2 to remain, got %+v", imgs)
	}
}

func TestEvictIdle(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	m := NewMemoryStoreWithClock(time.Minute, clock)

	m.Get("stale")
	now = now.Add(2 * time.Minute)
	m.Get("fresh")

	if n := m.EvictIdle(); n != 1 {
		t.Fatalf("evicted %d rooms, want 1", n)
	}
	if m.Len() != 1 {
		t.Errorf("len = %d after eviction, want 1", m.Len())
	}

	// Touching recreates the room empty; the stale state is gone.
	m.Merge("fresh", func(st *State) { st.ApplyBoxAdd(1, models.Box{ID: "x"}) })
	now = now.Add(30 * time.Second)
	if n := m.EvictIdle(); n != 0 {
		t.Errorf("evicted %d rooms, want 0", n)
	}
}
