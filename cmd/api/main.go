package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civicdesk/tomas/internal/config"
	"github.com/civicdesk/tomas/internal/handler"
	"github.com/civicdesk/tomas/internal/model/persona"
	"github.com/civicdesk/tomas/internal/service/ai"
	"github.com/civicdesk/tomas/internal/service/chat"
	"github.com/civicdesk/tomas/internal/service/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded, using process environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Server.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	chatService := chat.NewService(
		chat.WithTTL(cfg.Server.SessionTTL),
		chat.WithMaxMessages(cfg.Server.SessionMaxMessages),
	)
	go chatService.RunJanitor(ctx, time.Minute, func(removed int) {
		log.Debug().Int("removed", removed).Msg("expired sessions pruned")
	})

	var searcher ai.Searcher
	if cfg.Search.Enabled() {
		searcher = search.NewClient(cfg.Search.BaseURL, cfg.Search.APIKey, nil, log.Logger)
		log.Info().Msg("firecrawl search tool enabled")
	} else {
		log.Warn().Msg("FIRECRAWL_API_KEY not set, answering without the search tool")
	}

	var generator ai.Generator
	if cfg.AI.Enabled() {
		generator, err = newAssistant(ctx, cfg.AI, searcher)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize assistant, /api/chat will answer 503")
		} else {
			log.Info().Str("model", cfg.AI.Model).Msg("assistant initialized")
		}
	} else {
		log.Warn().Msg("ark credentials not configured, skipping assistant initialization")
	}

	router := handler.NewRouter(personaStore, chatService, generator, log.Logger)

	startServer(ctx, cfg.Server, router)
}

// newAssistant returns a nil interface on failure so the router sees no
// generator rather than a typed nil.
func newAssistant(ctx context.Context, cfg config.AIConfig, searcher ai.Searcher) (ai.Generator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := ai.NewService(ctx, chatModel, ai.Options{
		Searcher:     searcher,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       log.Logger,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("chat server listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server shutdown complete")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
