package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/studydeck/internal/bot"
	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/reminder"
	"github.com/example/studydeck/internal/scheduler"
	"github.com/example/studydeck/internal/srs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with OS environment variables")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	projector := srs.NewIntervalProjector()
	study := scheduler.New(projector)

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	b, err := bot.New(token, study)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	reminders := reminder.New(study, b)
	reminders.Start()
	defer reminders.Stop()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Printf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}
