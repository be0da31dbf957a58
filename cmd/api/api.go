package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/devphaseX/assoc-api/internal/store/cache"
	"github.com/devphaseX/assoc-api/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"go.uber.org/zap"
)

type application struct {
	cfg             config
	logger          *zap.SugaredLogger
	store           *store.Storage
	cacheStore      *cache.Storage
	fileobject      fileobject.FileObject
	taskDistributor worker.TaskDistributor
	uploadLimiter   *stdlib.Middleware
	wg              sync.WaitGroup
}

type config struct {
	addr   string
	env    string
	apiURL string

	db        dbConfig
	redisCfg  redisConfig
	storage   storageConfig
	rateLimit rateLimitConfig
	cors      corsConfig
}

type dbConfig struct {
	dsn          string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

type redisConfig struct {
	addr    string
	pw      string
	db      int
	enabled bool
}

type storageConfig struct {
	driver      string
	maxFileSize int64
	backends    fileobject.Config
}

type rateLimitConfig struct {
	enabled bool
	uploads string
}

type corsConfig struct {
	allowedOrigins []string
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.cors.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Ratelimit-Limit", "X-Ratelimit-Remaining", "X-Ratelimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.notFoundResponse(w, r)
	})
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		// Uploads are bounded by the storage client timeout instead of the
		// request timeout below.
		r.Route("/files", func(r chi.Router) {
			r.With(app.rateLimitUploads).Post("/", app.uploadFileHandler)
			r.Delete("/{key}", app.deleteFileHandler)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.With(middleware.Timeout(60*time.Second)).Group(func(r chi.Router) {
				r.Get("/", app.listProfilesHandler)
				r.Post("/", app.createProfileHandler)
				r.Get("/{profileID}", app.getProfileHandler)
				r.Patch("/{profileID}", app.updateProfileHandler)
				r.Delete("/{profileID}", app.deleteProfileHandler)
			})
			r.With(app.rateLimitUploads).Put("/{profileID}/avatar", app.uploadAvatarHandler)
		})
	})

	if local, ok := app.fileobject.(*fileobject.FileSystemStorage); ok {
		FileServer(r, "/f", http.Dir(local.BasePath()))
	}

	return r
}

func (app *application) serve() error {
	srv := &http.Server{
		Addr:              app.cfg.addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit

		app.logger.Infow("caught signal", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.logger.Infow("completing background tasks", "addr", app.cfg.addr)

		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Infow("server has started", "addr", app.cfg.addr, "env", app.cfg.env, "storage_driver", app.cfg.storage.driver)
	err := srv.ListenAndServe()

	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.cfg.addr, "env", app.cfg.env)
	return nil
}
