package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/api"
	"github.com/safehaven/safehaven-api/internal/cache"
	"github.com/safehaven/safehaven-api/internal/config"
	"github.com/safehaven/safehaven-api/internal/identity"
	"github.com/safehaven/safehaven-api/internal/logging"
	"github.com/safehaven/safehaven-api/internal/middleware"
	"github.com/safehaven/safehaven-api/internal/services"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logging.Options{Directory: cfg.Logging.Directory, Level: cfg.Logging.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateOnly(cfg, log); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations applied", zap.String("driver", cfg.Storage.Driver))
		return
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func newVerifier(cfg config.AuthConfig) identity.Verifier {
	if cfg.Provider == "google" {
		return identity.NewGoogleVerifier(cfg.GoogleClientIDs)
	}
	return identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
}

func run(cfg *config.Config, log *zap.Logger) error {
	store, err := openStore(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("failed to close store", zap.Error(cerr))
		}
	}()

	var assessmentStore services.AssessmentStore = api.NewAssessmentStore(store)
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		assessmentStore = cache.NewAssessmentCache(assessmentStore, rdb, cfg.Cache.TTL, log)
		log.Info("assessment cache enabled", zap.String("addr", cfg.Cache.RedisAddr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	users := api.NewUserLookup(store)
	svc := api.Services{
		Assessments:  services.NewAssessmentService(assessmentStore, log),
		Auth:         services.NewAuthService(api.NewUserStore(store), newVerifier(cfg.Auth), log),
		Articles:     services.NewArticleService(api.NewArticleStore(store), log),
		HelpCenters:  services.NewHelpCenterService(api.NewHelpCenterStore(store), log),
		Stories:      services.NewStoryService(api.NewStoryStore(store), users, log),
		Testimonials: services.NewTestimonialService(api.NewTestimonialStore(store), users, log),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", api.HealthHandler(store)).Methods(http.MethodGet)
	r.HandleFunc("/version", api.VersionHandler(cfg.Server.Commit, cfg.Server.BuildTime)).Methods(http.MethodGet)
	api.NewRouter(svc, log).Register(r)

	var handler http.Handler = r
	handler = middleware.NoStore(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogger(log)(handler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("SafeHaven server listening", zap.String("addr", cfg.Server.Addr), zap.String("storage", cfg.Storage.Driver), zap.String("auth", cfg.Auth.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
