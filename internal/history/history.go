// Package history keeps a linear undo/redo log of whole-document byte
// snapshots, each tagged with its retrieval URL.
package history

import "errors"

var (
	ErrNoUndo = errors.New("nothing to undo")
	ErrNoRedo = errors.New("nothing to redo")
)

// DefaultLimit bounds the number of retained snapshots. Every entry holds
// a full copy of the document bytes, so the stack evicts the oldest entry
// once the limit is reached.
const DefaultLimit = 50

// Entry is an immutable snapshot of the document.
type Entry struct {
	Bytes []byte
	URL   string
}

// Stack is a bounded linear undo/redo log. The cursor always points at a
// valid index except when the stack is empty (cursor -1). Not safe for
// concurrent use.
type Stack struct {
	entries []Entry
	cursor  int
	limit   int
}

func New() *Stack {
	return NewWithLimit(DefaultLimit)
}

func NewWithLimit(limit int) *Stack {
	if limit < 1 {
		limit = 1
	}
	return &Stack{cursor: -1, limit: limit}
}

// Push truncates any redo entries beyond the cursor, appends a snapshot
// and advances the cursor to it. The byte buffer is copied so later reuse
// of the caller's buffer cannot corrupt history.
func (s *Stack) Push(data []byte, url string) {
	s.entries = s.entries[:s.cursor+1]
	s.entries = append(s.entries, Entry{
		Bytes: append([]byte(nil), data...),
		URL:   url,
	})
	if len(s.entries) > s.limit {
		s.entries = s.entries[1:]
	}
	s.cursor = len(s.entries) - 1
}

// Undo moves the cursor back one entry and returns it.
func (s *Stack) Undo() (Entry, error) {
	if s.cursor <= 0 {
		return Entry{}, ErrNoUndo
	}
	s.cursor--
	return s.entries[s.cursor], nil
}

// Redo moves the cursor forward one entry and returns it.
func (s *Stack) Redo() (Entry, error) {
	if s.cursor < 0 || s.cursor >= len(s.entries)-1 {
		return Entry{}, ErrNoRedo
	}
	s.cursor++
	return s.entries[s.cursor], nil
}

// Current returns the entry at the cursor.
func (s *Stack) Current() (Entry, bool) {
	if s.cursor < 0 {
		return Entry{}, false
	}
	return s.entries[s.cursor], true
}

// Cursor returns the current cursor index, -1 when empty.
func (s *Stack) Cursor() int { return s.cursor }

// Len returns the number of retained entries.
func (s *Stack) Len() int { return len(s.entries) }

// CanUndo reports whether Undo would succeed.
func (s *Stack) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (s *Stack) CanRedo() bool { return s.cursor >= 0 && s.cursor < len(s.entries)-1 }
