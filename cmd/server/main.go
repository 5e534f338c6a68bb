package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/abalakin-dev/quizkeeper/internal/server"
	"github.com/abalakin-dev/quizkeeper/internal/server/config"
)

func main() {

	// Load environment variables from a .env file if one is present.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
