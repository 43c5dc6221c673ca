package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nullid/internal/auth"
	"nullid/internal/broker"
	"nullid/internal/broker/inproc"
	kafka_impl "nullid/internal/broker/kafka"
	"nullid/internal/config"
	"nullid/internal/function"
	"nullid/internal/http-server/handler/items"
	object_h "nullid/internal/http-server/handler/object"
	"nullid/internal/http-server/router"
	"nullid/internal/stack"
	"nullid/internal/trigger"
	object_uc "nullid/internal/usecase/object"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	producer broker.Producer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	ctx := context.Background()

	m, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	table, err := LoadTable(cfg)
	if err != nil {
		return nil, err
	}
	authorizer, err := NewAuthorizer(ctx, cfg, table)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}

	store, err := NewObjectStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	fn, err := NewFunction(ctx, cfg, store, authorizer, m, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create function: %w", err)
	}

	// With in-memory storage the function runs in this process; otherwise
	// events go to the worker through Kafka.
	var producer broker.Producer
	if cfg.Storage.Backend == "memory" {
		producer = inproc.NewProducer(func(ctx context.Context, msg *broker.Message) error {
			event, err := function.DecodeEvent(msg.Value)
			if err != nil {
				return err
			}
			_, err = fn.Handle(ctx, event)
			return err
		}, logger)
	} else {
		producer = kafka_impl.NewProducerClient(cfg)
	}

	eventing := trigger.NewEventingStore(store, producer, cfg.Function.TriggerPrefix, m, logger)
	objectUsecase := object_uc.NewObjectUsecase(eventing, authorizer, object_uc.Options{
		MaxSize:           cfg.Upload.MaxSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}, m, logger)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn().Msg("auth.jwt_secret is empty, using the local development secret")
		secret = auth.DevSecret
	}
	tokens := auth.NewTokenManager(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	declared := stack.New(cfg, table)
	h := &router.Handler{
		ObjectHandler: object_h.NewObjectHandler(objectUsecase, logger),
		ItemsHandler:  items.NewItemsHandler(fn, logger),
		Tokens:        tokens,
		Metrics:       promhttp.Handler(),
		CORS:          declared.API.CORS.Options(),
		StaticDir:     cfg.Server.StaticDir,
		TemplatesDir:  cfg.Server.TemplatesDir,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Str("backend", a.cfg.Storage.Backend).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to close producer")
			}
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
