package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	logger := log.New(os.Stderr, "(main) ", log.LstdFlags)
	cfg := loadConfig(logger)

	store := NewStore(&cfg)
	defer store.Close()

	var searcher ImageSearcher
	if cfg.UnsplashConfigured() {
		searcher = NewUnsplashApi(&cfg)
	}
	ranker := NewGeminiRanker(&cfg)
	engine := NewAIEngine(&cfg)
	resolver := NewImageResolver(store, searcher, ranker)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newServer(&cfg, store, engine, resolver).routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		logger.Println("Starting server on", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalln("Server error:", err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Println("Forced shutdown:", err.Error())
	}
}
