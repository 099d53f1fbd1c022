package v1

import (
	"time"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/libraries"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/rooms"

	"github.com/gofiber/fiber/v2"
)

var hub *libraries.Hub

func init() {
	// Initialize the Hub once
	hub = libraries.NewHub(rooms.NewMemoryStore())
	// Start the Hub in a goroutine
	go hub.Run()
	go hub.RunEviction(time.Minute)
}

func registerWS(app fiber.Router) {
	// Use the Hub-based WebSocket handler
	app.Get("/ws", libraries.WebSocketHandler(hub))
}
