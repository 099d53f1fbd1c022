package libraries

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/rooms"
)

// fakeStore records merges so relay semantics can be asserted without a
// live room cache.
type fakeStore struct {
	merges []string
}

func (f *fakeStore) Get(docID string) rooms.State {
	return rooms.State{
		Boxes:  map[int][]models.Box{},
		Images: map[int][]models.Image{},
	}
}

func (f *fakeStore) Merge(docID string, fn func(*rooms.State)) {
	f.merges = append(f.merges, docID)
	st := &rooms.State{
		Boxes:  map[int][]models.Box{},
		Images: map[int][]models.Image{},
	}
	fn(st)
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestApplyEventAddBox(t *testing.T) {
	store := rooms.NewMemoryStore()
	payload := raw(t, BoxEventPayload{
		DocID:      "doc-1",
		PageNumber: 1,
		Box:        &models.Box{ID: "b1", Text: "hello"},
	})

	docID, ok := ApplyEvent(store, WebSocketMessageTypeAddBox, payload)
	if !ok || docID != "doc-1" {
		t.Fatalf("ApplyEvent = (%q,%v), want (doc-1,true)", docID, ok)
	}

	st := store.Get("doc-1")
	if len(st.Boxes[1]) != 1 || st.Boxes[1][0].ID != "b1" {
		t.Errorf("room cache not updated: %+v", st.Boxes)
	}
}

func TestApplyEventMalformedSilentlyDropped(t *testing.T) {
	store := &fakeStore{}

	cases := []struct {
		name string
		typ  WebSocketMessageType
		data json.RawMessage
	}{
		{"delete_box without boxId", WebSocketMessageTypeDeleteBox,
			raw(t, BoxEventPayload{DocID: "d", PageNumber: 1})},
		{"add_box without docId", WebSocketMessageTypeAddBox,
			raw(t, BoxEventPayload{PageNumber: 1, Box: &models.Box{ID: "b"}})},
		{"add_box without pageNumber", WebSocketMessageTypeAddBox,
			raw(t, BoxEventPayload{DocID: "d", Box: &models.Box{ID: "b"}})},
		{"update_image without patch", WebSocketMessageTypeUpdateImage,
			raw(t, ImageEventPayload{DocID: "d", PageNumber: 1, ImageID: "i"})},
		{"lock_box without boxId", WebSocketMessageTypeLockBox,
			raw(t, LockPayload{DocID: "d"})},
		{"unknown type", WebSocketMessageType("explode"), raw(t, map[string]string{"docId": "d"})},
		{"not json at all", WebSocketMessageTypeAddBox, json.RawMessage(`{"broken`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := ApplyEvent(store, tc.typ, tc.data); ok {
				t.Error("malformed event must not be relayed")
			}
		})
	}
	if len(store.merges) != 0 {
		t.Errorf("malformed events caused %d cache mutations", len(store.merges))
	}
}

func TestApplyEventInvalidPatchDropped(t *testing.T) {
	store := &fakeStore{}
	payload := raw(t, BoxEventPayload{
		DocID: "d", PageNumber: 1, BoxID: "b1",
		Patch: &models.Patch{Op: models.PatchMoveTo}, // move without coordinates
	})
	if _, ok := ApplyEvent(store, WebSocketMessageTypeUpdateBox, payload); ok {
		t.Error("patch failing validation must be dropped")
	}
}

func TestApplyEventLockIsRelayOnly(t *testing.T) {
	store := &fakeStore{}
	payload := raw(t, LockPayload{DocID: "d", BoxID: "b1"})

	docID, ok := ApplyEvent(store, WebSocketMessageTypeLockBox, payload)
	if !ok || docID != "d" {
		t.Fatalf("lock_box must relay, got (%q,%v)", docID, ok)
	}
	if len(store.merges) != 0 {
		t.Error("lock_box must not touch the room cache")
	}
}

func TestInitStateReflectsCache(t *testing.T) {
	store := rooms.NewMemoryStore()

	// Session A adds a box, then saves a url; a later joiner must see both.
	_, ok := ApplyEvent(store, WebSocketMessageTypeAddBox, raw(t, BoxEventPayload{
		DocID: "doc-1", PageNumber: 1, Box: &models.Box{ID: "b1", Text: "from A"},
	}))
	if !ok {
		t.Fatal("add_box rejected")
	}
	store.Merge("doc-1", func(st *rooms.State) { st.PDFURL = "/files/doc-1.pdf" })

	reply, err := InitState(store, "doc-1")
	if err != nil {
		t.Fatal(err)
	}

	var env WebSocketMessage
	if err := json.Unmarshal(reply, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != WebSocketMessageTypeInitState {
		t.Fatalf("reply type = %q", env.Type)
	}
	var p InitStatePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Boxes[1]) != 1 || p.Boxes[1][0].ID != "b1" {
		t.Errorf("init_state boxes = %+v, want b1", p.Boxes)
	}
	if p.PDFURL != "/files/doc-1.pdf" {
		t.Errorf("init_state pdfUrl = %q", p.PDFURL)
	}
}

func TestInitStateEmptyRoom(t *testing.T) {
	store := rooms.NewMemoryStore()
	reply, err := InitState(store, "never-seen")
	if err != nil {
		t.Fatal(err)
	}
	var env WebSocketMessage
	if err := json.Unmarshal(reply, &env); err != nil {
		t.Fatal(err)
	}
	var p InitStatePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Boxes) != 0 || len(p.Images) != 0 {
		t.Errorf("fresh room must replay empty state, got %+v", p)
	}
}

func newHubClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 8)}
}

func joinRoom(t *testing.T, h *Hub, c *Client, docID string) {
	t.Helper()
	select {
	case h.join <- joinRequest{client: c, docID: docID}:
	case <-time.After(time.Second):
		t.Fatal("hub loop not accepting joins")
	}
}

func relayTo(t *testing.T, h *Hub, docID string, sender *Client, payload []byte) {
	t.Helper()
	select {
	case h.relay <- relayMessage{docID: docID, sender: sender, payload: payload}:
	case <-time.After(time.Second):
		t.Fatal("hub loop not accepting relays")
	}
}

func recvOne(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message relayed")
		return nil
	}
}

func TestHubRelaySkipsSender(t *testing.T) {
	h := NewHub(rooms.NewMemoryStore())
	go h.Run()

	a := newHubClient("a")
	b := newHubClient("b")
	joinRoom(t, h, a, "doc-1")
	joinRoom(t, h, b, "doc-1")

	relayTo(t, h, "doc-1", a, []byte("event"))

	if got := recvOne(t, b); string(got) != "event" {
		t.Errorf("b received %q", got)
	}
	// A later join proves the relay was fully processed before we check
	// that nothing was echoed back.
	joinRoom(t, h, newHubClient("sync"), "other")
	select {
	case msg := <-a.Send:
		t.Errorf("sender got its own event back: %q", msg)
	default:
	}
}

func TestHubRejoinMovesClientBetweenRooms(t *testing.T) {
	h := NewHub(rooms.NewMemoryStore())
	go h.Run()

	mover := newHubClient("mover")
	witness := newHubClient("witness")
	joinRoom(t, h, witness, "doc-a")
	joinRoom(t, h, mover, "doc-a")
	joinRoom(t, h, mover, "doc-b")

	// The mover left doc-a, so only the witness is there to receive.
	relayTo(t, h, "doc-a", witness, []byte("for doc-a"))
	joinRoom(t, h, newHubClient("sync"), "other")
	select {
	case msg := <-mover.Send:
		t.Errorf("mover still enrolled in doc-a: %q", msg)
	default:
	}

	relayTo(t, h, "doc-b", witness, []byte("for doc-b"))
	if got := recvOne(t, mover); string(got) != "for doc-b" {
		t.Errorf("mover received %q in doc-b", got)
	}
}

func TestHubRelayAfterRejoinAndDisconnect(t *testing.T) {
	h := NewHub(rooms.NewMemoryStore())
	go h.Run()

	c := newHubClient("c")
	witness := newHubClient("witness")
	joinRoom(t, h, witness, "doc-a")
	joinRoom(t, h, c, "doc-a")
	joinRoom(t, h, c, "doc-b")

	select {
	case h.Unregister <- c:
	case <-time.After(time.Second):
		t.Fatal("hub loop not accepting unregister")
	}

	// No stale membership in doc-a may outlive the closed Send channel.
	relayTo(t, h, "doc-a", witness, []byte("after disconnect"))

	// The loop must still be serving.
	late := newHubClient("late")
	joinRoom(t, h, late, "doc-a")
	relayTo(t, h, "doc-a", witness, []byte("still alive"))
	if got := recvOne(t, late); string(got) != "still alive" {
		t.Errorf("late joiner received %q", got)
	}
}

func TestHubUnregisterBeforeJoinClosesSend(t *testing.T) {
	h := NewHub(rooms.NewMemoryStore())
	go h.Run()

	c := newHubClient("never-joined")
	select {
	case h.Unregister <- c:
	case <-time.After(time.Second):
		t.Fatal("hub loop not accepting unregister")
	}

	select {
	case _, open := <-c.Send:
		if open {
			t.Error("Send delivered a message instead of closing")
		}
	case <-time.After(time.Second):
		t.Error("Send never closed; the write goroutine would leak")
	}
}

func TestAddressedToRejectsCrossRoomPayloads(t *testing.T) {
	// The read loop drops these before ApplyEvent, so a client in one
	// room can never mutate another room's cache.
	payload := raw(t, BoxEventPayload{
		DocID: "doc-b", PageNumber: 1, Box: &models.Box{ID: "b1", Text: "x"},
	})

	if addressedTo("doc-b", payload) != true {
		t.Error("payload for the client's own room rejected")
	}
	if addressedTo("doc-a", payload) {
		t.Error("payload for another room accepted")
	}
	if addressedTo("doc-a", json.RawMessage(`{broken`)) {
		t.Error("unparseable payload accepted")
	}
}
