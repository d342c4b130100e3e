package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ent0n29/nova/internal/actions"
	"github.com/ent0n29/nova/internal/assistant"
	"github.com/ent0n29/nova/internal/config"
	"github.com/ent0n29/nova/internal/httpapi"
	"github.com/ent0n29/nova/internal/observability"
	"github.com/ent0n29/nova/internal/schedule"
	"github.com/ent0n29/nova/internal/speech"
	"github.com/ent0n29/nova/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	var (
		recognizer speech.Recognizer
		speaker    speech.Speaker
	)

	tryCommand := func(fatal bool) bool {
		p, err := speech.NewCommandProvider(speech.CommandConfig{
			ListenCommand: cfg.ListenCommand,
			SpeakCommand:  cfg.SpeakCommand,
		})
		if err != nil {
			if fatal {
				log.Fatalf("speech command provider init failed: %v", err)
			}
			log.Printf("speech command provider unavailable: %v", err)
			return false
		}
		recognizer = p
		speaker = p
		log.Printf("speech provider: command (%s / %s)", cfg.ListenCommand, cfg.SpeakCommand)
		return true
	}

	switch strings.ToLower(strings.TrimSpace(cfg.SpeechProvider)) {
	case "command":
		_ = tryCommand(true)
	case "mock":
		p := speech.NewMockProvider()
		recognizer = p
		speaker = p
		log.Printf("speech provider: mock")
	case "auto", "":
		if !tryCommand(false) {
			p := speech.NewMockProvider()
			recognizer = p
			speaker = p
			log.Printf("speech provider: mock (no listen/speak commands configured)")
		}
	default:
		log.Fatalf("invalid NOVA_SPEECH_PROVIDER: %q (expected auto|command|mock)", cfg.SpeechProvider)
	}

	scheduler := schedule.NewManager()

	asst := assistant.New(cfg, assistant.Deps{
		Recognizer: recognizer,
		Speaker:    speaker,
		Scheduler:  scheduler,
		Store:      store,
		Lookup: actions.NewLookupClient(actions.LookupConfig{
			WeatherAPIKey: cfg.WeatherAPIKey,
			NewsAPIKey:    cfg.NewsAPIKey,
		}),
		Launcher: actions.NewLauncher(),
		Executor: actions.NewExecutor(),
		Player:   actions.NewPlayer(store.MusicDir(), cfg.MusicPlayerCommand),
		Metrics:  metrics,
	})

	api := httpapi.New(cfg, asst, scheduler, store)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- asst.Run(runCtx)
	}()

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Printf("shutdown signal received")
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("assistant stopped: %v", err)
		} else {
			log.Printf("assistant exited")
		}
	}

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
