package libraries

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/rooms"
)

// WebSocketMessageType enumerates the sync channel events.
type WebSocketMessageType string

const (
	WebSocketMessageTypePing      WebSocketMessageType = "ping"
	WebSocketMessageTypePong      WebSocketMessageType = "pong"
	WebSocketMessageTypeJoin      WebSocketMessageType = "join"
	WebSocketMessageTypeInitState WebSocketMessageType = "init_state"

	WebSocketMessageTypeAddBox      WebSocketMessageType = "add_box"
	WebSocketMessageTypeUpdateBox   WebSocketMessageType = "update_box"
	WebSocketMessageTypeDeleteBox   WebSocketMessageType = "delete_box"
	WebSocketMessageTypeAddImage    WebSocketMessageType = "add_image"
	WebSocketMessageTypeUpdateImage WebSocketMessageType = "update_image"
	WebSocketMessageTypeDeleteImage WebSocketMessageType = "delete_image"
	WebSocketMessageTypeLockBox     WebSocketMessageType = "lock_box"
	WebSocketMessageTypeUnlockBox   WebSocketMessageType = "unlock_box"
)

// WebSocketMessage is the envelope every event travels in.
type WebSocketMessage struct {
	Type WebSocketMessageType `json:"type"`
	Data json.RawMessage      `json:"data,omitempty"`
}

// JoinPayload enrolls the connection in a document room.
type JoinPayload struct {
	DocID string `json:"docId"`
}

// InitStatePayload replays the room's cached annotation set to a newly
// joined participant.
type InitStatePayload struct {
	Boxes  map[int][]models.Box   `json:"boxes"`
	Images map[int][]models.Image `json:"images"`
	PDFURL string                 `json:"pdfUrl,omitempty"`
}

// BoxEventPayload carries add/update/delete box events. Box is set for
// adds; BoxID (plus Patch for updates) for the rest.
type BoxEventPayload struct {
	DocID      string        `json:"docId"`
	PageNumber int           `json:"pageNumber"`
	Box        *models.Box   `json:"box,omitempty"`
	BoxID      string        `json:"boxId,omitempty"`
	Patch      *models.Patch `json:"patch,omitempty"`
}

// ImageEventPayload carries add/update/delete image events.
type ImageEventPayload struct {
	DocID      string        `json:"docId"`
	PageNumber int           `json:"pageNumber"`
	Image      *models.Image `json:"image,omitempty"`
	ImageID    string        `json:"imageId,omitempty"`
	Patch      *models.Patch `json:"patch,omitempty"`
}

// LockPayload carries lock/unlock events. These are relay-only and never
// persisted in the room cache.
type LockPayload struct {
	DocID string `json:"docId"`
	BoxID string `json:"boxId"`
}

type Client struct {
	ID    string
	DocID string
	Conn  *websocket.Conn
	Send  chan []byte
	once  sync.Once
}

type relayMessage struct {
	docID   string
	sender  *Client
	payload []byte
}

type joinRequest struct {
	client *Client
	docID  string
}

// Hub routes sync events between the participants of each document room
// and keeps the room cache current. All room membership changes and
// relays run on the single Run loop, so no locking is needed around the
// membership maps. roomOf is the loop's own record of where each client
// sits; it never reads client.DocID, which belongs to the read loop.
type Hub struct {
	store      rooms.Store
	members    map[string]map[*Client]bool
	roomOf     map[*Client]string
	join       chan joinRequest
	Unregister chan *Client
	relay      chan relayMessage
}

func NewHub(store rooms.Store) *Hub {
	return &Hub{
		store:      store,
		members:    make(map[string]map[*Client]bool),
		roomOf:     make(map[*Client]string),
		join:       make(chan joinRequest),
		Unregister: make(chan *Client),
		relay:      make(chan relayMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case req := <-h.join:
			// A client joining a new room leaves its old one; a stale
			// membership would be relayed to after its Send closes.
			if prev, ok := h.roomOf[req.client]; ok && prev != req.docID {
				h.dropFromRoom(req.client, prev)
			}
			if h.members[req.docID] == nil {
				h.members[req.docID] = make(map[*Client]bool)
			}
			h.members[req.docID][req.client] = true
			h.roomOf[req.client] = req.docID
		case client := <-h.Unregister:
			if room, ok := h.roomOf[client]; ok {
				h.dropFromRoom(client, room)
				delete(h.roomOf, client)
			}
			// Closed even for clients that never joined, else their
			// write goroutine blocks on the channel forever.
			client.once.Do(func() {
				close(client.Send)
			})
		case msg := <-h.relay:
			for client := range h.members[msg.docID] {
				if client == msg.sender {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					// slow consumer, best-effort relay drops the event
				}
			}
		}
	}
}

func (h *Hub) dropFromRoom(client *Client, docID string) {
	room := h.members[docID]
	if room == nil {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.members, docID)
	}
}

// RunEviction periodically drops idle rooms from the cache.
func (h *Hub) RunEviction(interval time.Duration) {
	mem, ok := h.store.(*rooms.MemoryStore)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if n := mem.EvictIdle(); n > 0 {
			log.Printf("evicted %d idle rooms", n)
		}
	}
}

// ApplyEvent validates a mutation event, applies it to the room cache and
// reports the room it should be rebroadcast to. Malformed events (missing
// docId, pageNumber or the relevant id) return ok=false and are silently
// dropped; this is an unauthenticated best-effort relay.
func ApplyEvent(store rooms.Store, typ WebSocketMessageType, data json.RawMessage) (docID string, ok bool) {
	switch typ {
	case WebSocketMessageTypeAddBox:
		var p BoxEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.Box == nil || p.Box.ID == "" {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyBoxAdd(p.PageNumber, *p.Box)
		})
		return p.DocID, true

	case WebSocketMessageTypeUpdateBox:
		var p BoxEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.BoxID == "" || p.Patch == nil {
			return "", false
		}
		if p.Patch.Validate() != nil {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyBoxUpdate(p.PageNumber, p.BoxID, *p.Patch)
		})
		return p.DocID, true

	case WebSocketMessageTypeDeleteBox:
		var p BoxEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.BoxID == "" {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyBoxDelete(p.PageNumber, p.BoxID)
		})
		return p.DocID, true

	case WebSocketMessageTypeAddImage:
		var p ImageEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.Image == nil || p.Image.ID == "" {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyImageAdd(p.PageNumber, *p.Image)
		})
		return p.DocID, true

	case WebSocketMessageTypeUpdateImage:
		var p ImageEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.ImageID == "" || p.Patch == nil {
			return "", false
		}
		if p.Patch.Validate() != nil {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyImageUpdate(p.PageNumber, p.ImageID, *p.Patch)
		})
		return p.DocID, true

	case WebSocketMessageTypeDeleteImage:
		var p ImageEventPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.PageNumber < 1 || p.ImageID == "" {
			return "", false
		}
		store.Merge(p.DocID, func(st *rooms.State) {
			st.ApplyImageDelete(p.PageNumber, p.ImageID)
		})
		return p.DocID, true

	case WebSocketMessageTypeLockBox, WebSocketMessageTypeUnlockBox:
		// Relay-only; not persisted in the room cache.
		var p LockPayload
		if json.Unmarshal(data, &p) != nil || p.DocID == "" || p.BoxID == "" {
			return "", false
		}
		return p.DocID, true
	}
	return "", false
}

// InitState builds the init_state reply for a joining participant.
func InitState(store rooms.Store, docID string) ([]byte, error) {
	st := store.Get(docID)
	payload, err := json.Marshal(InitStatePayload{
		Boxes:  st.Boxes,
		Images: st.Images,
		PDFURL: st.PDFURL,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebSocketMessage{
		Type: WebSocketMessageTypeInitState,
		Data: payload,
	})
}

// addressedTo reports whether a mutation payload targets the given room.
func addressedTo(docID string, data json.RawMessage) bool {
	var addr struct {
		DocID string `json:"docId"`
	}
	return json.Unmarshal(data, &addr) == nil && addr.DocID == docID
}

func sendPongMessage(client *Client) {
	pongBytes, err := json.Marshal(WebSocketMessage{Type: WebSocketMessageTypePong})
	if err != nil {
		log.Println("failed to marshal pong response:", err)
		return
	}
	client.Send <- pongBytes
}

// WebSocketHandler upgrades the connection and runs the read loop. Each
// connection joins exactly one document room via a join event; mutation
// events are applied to the room cache and rebroadcast to every other
// participant in the room, never echoed to the sender.
func WebSocketHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			ID:   uuid.NewString(),
			Conn: conn,
			Send: make(chan []byte, 256),
		}

		// Write loop
		go func() {
			defer func() {
				hub.Unregister <- client
				conn.Close()
			}()
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Println("write error:", err)
					return
				}
			}
		}()

		// Read loop
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var message WebSocketMessage
			if err := json.Unmarshal(msg, &message); err != nil {
				// Malformed frame, defensive no-op.
				continue
			}

			switch message.Type {
			case WebSocketMessageTypePing:
				sendPongMessage(client)

			case WebSocketMessageTypeJoin:
				var p JoinPayload
				if json.Unmarshal(message.Data, &p) != nil || p.DocID == "" {
					continue
				}
				client.DocID = p.DocID
				hub.join <- joinRequest{client: client, docID: p.DocID}
				reply, err := InitState(hub.store, p.DocID)
				if err != nil {
					log.Println("failed to build init_state:", err)
					continue
				}
				client.Send <- reply

			default:
				if client.DocID == "" {
					// Mutations before join have no room to land in.
					continue
				}
				// A payload addressed to another room is malformed and
				// must not reach the cache: whatever the cache records,
				// the room's participants see too.
				if !addressedTo(client.DocID, message.Data) {
					continue
				}
				docID, ok := ApplyEvent(hub.store, message.Type, message.Data)
				if !ok {
					continue
				}
				hub.relay <- relayMessage{docID: docID, sender: client, payload: msg}
			}
		}

		hub.Unregister <- client
		conn.Close()
	})
}
