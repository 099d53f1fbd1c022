package main

import (
	"errors"
	"log"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/api"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/api/routes"
	"github.com/sanskardagade/PDF-FILLER-NEW/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to database; without DB_URL document state stays in memory
	if err := config.ConnectDB(); err != nil {
		if !errors.Is(err, config.ErrNoDatabase) {
			log.Fatal("Failed to connect to database:", err)
		}
		log.Println("Warning: DB_URL not set, running without persistence")
	} else {
		// Run migrations
		if err := config.MigrateAllModels(true); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}

	// Create and configure Fiber app
	app := api.NewServer()

	// Register routes
	routes.Register(app)

	// Start server
	if err := api.StartServer(app); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
