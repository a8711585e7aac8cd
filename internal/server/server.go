// Package server provides the HTTP server setup for go-stamppdf.
//
// NewServer creates and configures the HTTP server, session manager, the
// stamping engine and the file directories.
//
// Expected outputs:
// - Server listens on the configured port (default 8080)
// - Expired sessions and their files are swept periodically
//
// Usage:
//
//	cfg, _ := config.Load()
//	srv, _ := server.NewServer(cfg)
//	srv.HTTP.ListenAndServe()
//	defer srv.Close()
//
// See internal/server/routes.go for route registration.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go-stamppdf/internal/config"
	"go-stamppdf/internal/convert"
	"go-stamppdf/internal/handlers"
	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/session"
	"go-stamppdf/internal/stamp"
)

type Server struct {
	port           int
	SessionManager *session.SessionManager
	UploadDir      string
	OutputDir      string
	Engine         handlers.Engine

	HTTP    *http.Server
	sweeper *session.Sweeper
}

func NewServer(cfg config.Config) (*Server, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	defaults, err := cfg.StampOptions()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	opener := pdf.Backend{Optimize: true}

	srv := &Server{
		port:           cfg.Port,
		SessionManager: session.NewSessionManager(),
		UploadDir:      cfg.UploadDir,
		OutputDir:      cfg.OutputDir,
		Engine: handlers.Engine{
			Defaults: defaults,
			Processing: []stamp.ProcessorOption{
				stamp.WithOpener(opener),
				stamp.WithConverter(convert.NewSoffice(cfg.SofficeBin, cfg.ConvertTimeout, logger)),
				stamp.WithTempDir(cfg.TempDir),
				stamp.WithLogger(logger),
			},
			Opener: opener,
		},
	}

	srv.sweeper = session.NewSweeper(srv.SessionManager, cfg.SessionTTL, cfg.SweepInterval, logger)
	srv.sweeper.Start()

	srv.HTTP = &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ConvertTimeout + 30*time.Second,
	}

	return srv, nil
}

// Close stops the session sweeper and removes every session's files.
// It does not shut down the HTTP server.
func (s *Server) Close() {
	s.sweeper.Stop()
	s.SessionManager.CleanupAll()
}
