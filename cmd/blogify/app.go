package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkarpov/blogify/internal/db"
	"github.com/nkarpov/blogify/internal/handlers"
	"github.com/nkarpov/blogify/internal/logger"
	"github.com/nkarpov/blogify/internal/repository"
	"github.com/nkarpov/blogify/internal/repository/postgres"
	"github.com/nkarpov/blogify/internal/service/auth"
	"github.com/nkarpov/blogify/internal/service/auth/tokenmanager"
	"github.com/nkarpov/blogify/internal/service/blog"
	"github.com/nkarpov/blogify/internal/service/category"
	"github.com/nkarpov/blogify/internal/service/imagestore"
)

// Expired session rows are dead weight, sweep them out periodically
const sessionSweepInterval = time.Hour

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	sessions repository.SessionRepo
	logger   logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Logs are structured text in development and JSON everywhere else
	var l logger.Logger
	switch c.Environment {
	case EnvDevelopment:
		l = logger.NewLogger(c.LogLevel)
	default:
		l = logger.NewJSONLogger(c.LogLevel)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(
		auth.Config{SecureCookies: c.Environment != EnvDevelopment},
		tokenManager,
		storage.User(),
		storage.Session(),
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	images, err := imagestore.New(ctx, imagestore.Config{
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Endpoint:      c.S3Endpoint,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating image store. Err: %w", err)
	}

	blogService, err := blog.NewService(storage.Blog(), images)
	if err != nil {
		return nil, fmt.Errorf("error while creating blog service. Err: %w", err)
	}

	categoryService, err := category.NewService(storage.Category())
	if err != nil {
		return nil, fmt.Errorf("error while creating category service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, blogService, categoryService, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		sessions:   storage.Session(),
		logger:     l,
	}, nil
}

// sweepSessions deletes expired session registry rows until ctx is cancelled
func (s *ServerApp) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.sessions.DeleteExpired(ctx)
			if err != nil {
				s.logger.Error("Session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Info("Swept expired sessions", "deleted", deleted)
			}
		}
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go s.sweepSessions(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
