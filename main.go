package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/legendas/internal/ai"
	"github.com/example/legendas/internal/database"
	"github.com/example/legendas/internal/fsrs"
	"github.com/example/legendas/internal/logger"
	"github.com/example/legendas/internal/notify"
	"github.com/example/legendas/internal/scheduler"
	"github.com/example/legendas/internal/server"
	"github.com/example/legendas/internal/study"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	zlog, err := logger.New(os.Getenv("APP_MODE"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	if err := database.Connect(); err != nil {
		zlog.Fatalw("failed to connect to database", "error", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zlog.Infow("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	studySvc := study.NewService(database.NewStudyStore(), fsrs.NewDefault(), zlog)

	// Extraction and reminders are optional features keyed off their
	// credentials being present.
	var extractor *ai.Extractor
	if os.Getenv("OPENAI_API_KEY") != "" {
		extractor, err = ai.New(zlog)
		if err != nil {
			zlog.Fatalw("failed to create extractor", "error", err)
		}
	} else {
		zlog.Infow("OPENAI_API_KEY not set, phrase extraction disabled")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") != "" {
		notifier, err := notify.NewTelegram(zlog)
		if err != nil {
			zlog.Fatalw("failed to create telegram notifier", "error", err)
		}
		jobs := scheduler.New(notifier, zlog)
		jobs.Start()
		defer jobs.Stop()
	} else {
		zlog.Infow("TELEGRAM_BOT_TOKEN not set, reminders disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	srv := server.New(studySvc, extractor, zlog)
	if err := srv.Run(ctx, addr); err != nil {
		zlog.Fatalw("server error", "error", err)
	}
	zlog.Infow("shutdown complete")
}
