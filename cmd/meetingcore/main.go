// Command meetingcore is the meeting-transcription service's process
// entrypoint: it wires the recognizer and VAD boundary adapters, exposes
// a meeting lifecycle API plus health/metrics endpoints and the live
// transcript websocket channel, and drives graceful shutdown of every
// active meeting.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicecore/meetingpipe/internal/config"
	"github.com/voicecore/meetingpipe/internal/env"
	"github.com/voicecore/meetingpipe/internal/httpclient"
	"github.com/voicecore/meetingpipe/internal/orchestrator"
	"github.com/voicecore/meetingpipe/internal/pipeline"
	"github.com/voicecore/meetingpipe/internal/recognizer"
	"github.com/voicecore/meetingpipe/internal/speech"
	"github.com/voicecore/meetingpipe/internal/trace"
	"github.com/voicecore/meetingpipe/internal/vad"
	"github.com/voicecore/meetingpipe/internal/ws"
)

// shutdownGrace bounds how long in-flight meetings are given to flush
// and close before the HTTP server itself is torn down.
const shutdownGrace = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load(env.Str("MEETINGCORE_CONFIG", "meetingcore.json"))
	if err := cfg.Validate(speech.MaxAudioSec); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	port := env.Str("MEETINGCORE_PORT", "8090")
	postgresURL := env.Str("POSTGRES_URL", "")

	recognizerClient := recognizer.New(cfg.RecognizerURL, httpclient.NewPooled(cfg.RecognizerPool, time.Duration(cfg.RecognizerTimeoutMs)*time.Millisecond))
	recognizerRouter := pipeline.NewRouter(map[string]speech.Recognizer{
		"default": recognizerClient,
	}, "default")

	vadBackends := map[string]vad.Predictor{
		"local": vad.NewLocal(vad.DefaultLocalConfig()),
	}
	if cfg.VADURL != "" {
		vadBackends["remote"] = vad.NewRemote(cfg.VADURL, httpclient.NewPooled(cfg.VADPoolSize, 5*time.Second))
	}
	vadRouter := pipeline.NewRouter(vadBackends, "local")

	var store *trace.Store
	var ledger *trace.Ledger
	if postgresURL != "" {
		var err error
		store, err = trace.Open(postgresURL)
		if err != nil {
			slog.Error("commit ledger open failed", "error", err)
		} else {
			ledger = trace.NewLedger(store)
			slog.Info("commit ledger enabled", "postgres", postgresURL)
		}
	}

	hub := ws.NewHub()
	registry := orchestrator.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	registerRoutes(mux, deps{
		cfg:           cfg,
		recognizerRtr: recognizerRouter,
		vadRouter:     vadRouter,
		ledger:        ledger,
		hub:           hub,
		registry:      registry,
		wsHandler:     ws.NewHandler(hub),
		transcriptDir: env.Str("TRANSCRIPT_DIR", "."),
		recordDir:     env.Str("RECORD_DIR", ""),
		openaiAPIKey:  env.Str("OPENAI_API_KEY", ""),
		openaiModel:   env.Str("OPENAI_SUMMARY_MODEL", "gpt-4.1-nano"),
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go awaitShutdown(ctx, srv, registry, store)

	slog.Info("meetingcore starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("meetingcore stopped")
}

// awaitShutdown blocks until ctx is cancelled (SIGINT/SIGTERM), then ends
// every active meeting with a grace deadline before stopping the HTTP
// server and closing the commit ledger's store, if any.
func awaitShutdown(ctx context.Context, srv *http.Server, registry *orchestrator.Registry, store *trace.Store) {
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	registry.EndAll(shutdownCtx)
	srv.Shutdown(shutdownCtx)
	if store != nil {
		store.Close()
	}
}
