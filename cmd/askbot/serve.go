package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mymmrac/telego"

	"github.com/lojasmm/askbot/internal/admin"
	"github.com/lojasmm/askbot/internal/bot"
	"github.com/lojasmm/askbot/internal/logging"
	"github.com/lojasmm/askbot/internal/session"
	"github.com/lojasmm/askbot/internal/store"
	"github.com/lojasmm/askbot/internal/telegram"
)

func serve(config *CliConfig, envFile string) error {
	cfg, err := loadConfig(envFile, config.Stderr)
	if err != nil {
		return err
	}
	if err := cfg.RequireBotToken(); err != nil {
		return err
	}
	log := logging.NewModuleLogger("main")

	ctx := config.Context
	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	db, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "askbot.db"))
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close()

	// net/http aborts requests when their context ends. The timeout sits
	// above the long polling timeout.
	tg, err := telego.NewBot(cfg.BotToken, telego.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	sessions := session.NewManager(cfg.MaxHistoryTurns)

	// Periodic cleanup of idle conversations
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup(24 * time.Hour)
			}
		}
	}()

	handler := bot.NewHandler(newQAClient(cfg), telegram.NewChannel(tg), sessions, db, bot.Options{
		MessageLimit:     cfg.MessageLimit,
		MaxSourceTitles:  cfg.MaxSourceTitles,
		AssistantCap:     cfg.MaxAssistantChars,
		ProgressInterval: cfg.ProgressInterval,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      admin.NewHandler(db, sessions).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("admin server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", "error", err)
		}
	}()

	log.Info("starting telegram polling", "api_url", cfg.APIURL)
	pollErr := telegram.Poll(ctx, tg, handler)

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	if pollErr != nil && ctx.Err() == nil {
		return fmt.Errorf("telegram: %w", pollErr)
	}
	log.Info("stopped")
	return nil
}
