// Package rooms caches the latest known annotation set per document, used
// by the sync channel to replay initial state to newly joined editors.
// Entries are created lazily on first reference and evicted after an
// idle timeout instead of living for the process lifetime.
package rooms

import (
	"sync"
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// State is the cached annotation set of one document. The maps are always
// non-nil.
type State struct {
	Boxes  map[int][]models.Box   `json:"boxes"`
	Images map[int][]models.Image `json:"images"`
	PDFURL string                 `json:"pdfUrl"`
}

func newState() *State {
	return &State{
		Boxes:  make(map[int][]models.Box),
		Images: make(map[int][]models.Image),
	}
}

// Store is the narrow interface the sync channel sees, so hub tests can
// substitute a fake.
type Store interface {
	// Get returns a snapshot of the document's cached state, creating an
	// empty entry if the document was never seen.
	Get(docID string) State
	// Merge applies fn to the document's cached state under the store's
	// lock, creating the entry if absent.
	Merge(docID string, fn func(*State))
}

// DefaultIdleTimeout is how long an untouched room survives.
const DefaultIdleTimeout = 30 * time.Minute

type entry struct {
	state    *State
	lastSeen time.Time
}

// MemoryStore is the mutex-guarded in-process implementation. The clock
// is injectable for eviction tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	idle    time.Duration
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		idle:    DefaultIdleTimeout,
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock returns a store with a custom idle timeout and
// clock, for tests.
func NewMemoryStoreWithClock(idle time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		idle:    idle,
		now:     now,
	}
}

func (m *MemoryStore) touch(docID string) *entry {
	e, ok := m.entries[docID]
	if !ok {
		e = &entry{state: newState()}
		m.entries[docID] = e
	}
	e.lastSeen = m.now()
	return e
}

func (m *MemoryStore) Get(docID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.touch(docID)
	return snapshot(e.state)
}

func (m *MemoryStore) Merge(docID string, fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.touch(docID)
	fn(e.state)
}

// EvictIdle drops rooms untouched for longer than the idle timeout and
// returns how many were removed. Run periodically by the owning hub.
func (m *MemoryStore) EvictIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.idle)
	n := 0
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of cached rooms.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func snapshot(st *State) State {
	out := State{
		Boxes:  make(map[int][]models.Box, len(st.Boxes)),
		Images: make(map[int][]models.Image, len(st.Images)),
		PDFURL: st.PDFURL,
	}
	for page, list := range st.Boxes {
		out.Boxes[page] = append([]models.Box(nil), list...)
	}
	for page, list := range st.Images {
		out.Images[page] = append([]models.Image(nil), list...)
	}
	return out
}

// ApplyBoxAdd appends a box to the cached page list.
func (st *State) ApplyBoxAdd(page int, box models.Box) {
	st.Boxes[page] = append(st.Boxes[page], box)
}

// ApplyBoxUpdate patches the cached box if present; absent ids are
// ignored, matching the relay's best-effort semantics.
func (st *State) ApplyBoxUpdate(page int, id string, patch models.Patch) {
	list := st.Boxes[page]
	for i := range list {
		if list[i].ID == id {
			patch.ApplyToBox(&list[i])
			return
		}
	}
}

// ApplyBoxDelete removes the cached box if present.
func (st *State) ApplyBoxDelete(page int, id string) {
	list := st.Boxes[page]
	for i := range list {
		if list[i].ID == id {
			st.Boxes[page] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// ApplyImageAdd appends an image to the cached page list.
func (st *State) ApplyImageAdd(page int, img models.Image) {
	st.Images[page] = append(st.Images[page], img)
}

// ApplyImageUpdate patches the cached image if present.
func (st *State) ApplyImageUpdate(page int, id string, patch models.Patch) {
	list := st.Images[page]
	for i := range list {
		if list[i].ID == id {
			patch.ApplyToImage(&list[i])
			return
		}
	}
}

// ApplyImageDelete removes the cached image if present.
func (st *State) ApplyImageDelete(page int, id string) {
	list := st.Images[page]
	for i := range list {
		if list[i].ID == id {
			st.Images[page] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}
