package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/config"
	"github.com/parlatext/parlatext/internal/handlers"
	"github.com/parlatext/parlatext/internal/jobs"
	"github.com/parlatext/parlatext/internal/llm"
	"github.com/parlatext/parlatext/internal/service"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/transcriber"
	"github.com/parlatext/parlatext/internal/translation"
	"github.com/parlatext/parlatext/pkg/metrics"
	"github.com/parlatext/parlatext/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	riverStopTimeout        = 30 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of a parlatext API server.
func New(cfg *config.Config, store store.Store, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()
	metrics.RegisterDomainMetrics()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		authenticator.Authenticator,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	// Parse config to safely handle special characters in credentials
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		s.cfg.Database.Hostname,
		s.cfg.Database.User,
		s.cfg.Database.Password,
		s.cfg.Database.Port,
		s.cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// Connection pool sized for job processing plus LISTEN/NOTIFY.
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer dbPool.Close()

	llmClient := llm.NewOpenAIClient(s.cfg.LLM.BaseUrl, s.cfg.LLM.APIKey, s.cfg.LLM.Model, s.cfg.LLM.Timeout)
	transcriberClient := transcriber.NewClient(s.cfg.Transcriber.BaseUrl, s.cfg.Transcriber.APIKey, s.cfg.Transcriber.Timeout)

	engine := translation.NewEngine(llmClient, translation.EngineConfig{
		MinLengthRatio:    s.cfg.Translation.MinLengthRatio,
		LongUnitThreshold: s.cfg.Translation.LongUnitThreshold,
		DocumentRetries:   s.cfg.Translation.DocumentRetries,
	})
	orchestrator := translation.NewOrchestrator(engine, s.store.Transcription(), s.store.Translation())

	worker := jobs.NewTranscribeWorker(s.store, transcriberClient, llmClient, orchestrator)
	jobClient, err := jobs.NewClient(dbPool, worker)
	if err != nil {
		return fmt.Errorf("failed to create job client: %w", err)
	}

	if err := jobClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job queue: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), riverStopTimeout)
		defer cancel()
		if err := jobClient.Stop(stopCtx); err != nil {
			zap.S().Named("api_server").Warnw("failed to stop job client", "error", err)
		}
	}()

	zap.S().Named("api_server").Info("job queue initialized")

	observer := jobs.NewStallObserver(jobClient, s.store.Transcription())
	observer.Start(ctx)

	// Recover transcriptions stranded by a crash of the previous process.
	// Runs after the queue is live so re-submitted jobs are picked up
	// immediately; failures here must not prevent the server from serving.
	reconciler := jobs.NewReconciler(s.store.Transcription(), s.store.QueueJob(), jobClient, jobs.ReconcilerConfig{
		GracePeriod: s.cfg.Recovery.GracePeriod,
		SettleDelay: s.cfg.Recovery.SettleDelay,
	})
	go func() {
		if err := reconciler.Run(ctx); err != nil {
			zap.S().Named("api_server").Errorf("startup recovery failed: %v", err)
		}
	}()

	h := handlers.NewServiceHandler(
		service.NewTranscriptionService(s.store, jobClient),
		service.NewTranslationService(s.store, orchestrator),
	)
	h.Routes(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
