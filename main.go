package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"scribe/internal/config"
	"scribe/internal/materialize"
	"scribe/internal/observability"
	"scribe/internal/persona"
	"scribe/internal/platform/completion"
	"scribe/internal/server"
	"scribe/internal/session"
	"scribe/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	observability.Init(observability.LogConfig{Level: cfg.LogLevel, Verbose: cfg.LogVerbose})
	log := observability.Component("main")
	ctx := context.Background()

	shutdownTracing, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:     cfg.OTELEnabled,
		Endpoint:    cfg.OTELEndpoint,
		ServiceName: cfg.OTELServiceName,
		Environment: cfg.OTELEnvironment,
		Insecure:    cfg.OTELInsecure,
	})
	observability.Must(err, "init tracing")
	defer func() { _ = shutdownTracing(ctx) }()

	personas, err := persona.NewRegistry(cfg.DefaultPersona)
	observability.Must(err, "init personas")
	if cfg.PersonaFile != "" {
		observability.Must(personas.LoadOverrides(cfg.PersonaFile), "load persona overrides")
		log.Info(ctx, "persona overrides loaded", "path", cfg.PersonaFile)
	}

	writer, err := materialize.NewWriter(cfg.WorkspaceRoot)
	observability.Must(err, "init workspace writer")

	var store *transcript.Store
	if !cfg.TranscriptDisabled {
		store, err = transcript.NewStore(filepath.Join(cfg.DataDir, "transcript"))
		if err != nil {
			log.Warn(ctx, "transcript store unavailable, archiving disabled", observability.AttrErr(err))
			store = nil
		}
	}

	pipeline := session.Pipeline{
		Personas:    personas,
		Credentials: completion.NewCredentialSource(cfg.APIToken, cfg.APITokenFile),
		Client:      completion.NewClient(cfg.APIURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second),
		Writer:      writer,
		Transcript:  store,
	}

	srv := server.New(cfg, session.NewRegistry(pipeline), server.NewNotifier(cfg.EventSinkURL))

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server failed", observability.AttrErr(err))
			os.Exit(1)
		}
	}()
	log.Info(ctx, "scribe started",
		"workspace", writer.Root(),
		"default_persona", personas.Default().ID,
		"transcript_enabled", store != nil,
	)

	<-runCtx.Done()
	stop()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "forced shutdown", observability.AttrErr(err))
		os.Exit(1)
	}
	log.Info(ctx, "stopped")
}
