package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/mlog"
)

// Server is the thin fiber HTTP boundary: it owns no business logic, only
// the listener and its graceful shutdown.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        mlog.Logger
}

// ServerAddress returns the address Run listens on.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger mlog.Logger) *Server {
	return &Server{
		app:           app,
		serverAddress: cfg.ServerAddress,
		logger:        logger,
	}
}

// Run listens on s.serverAddress until ctx is canceled, then drains
// in-flight requests before returning.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Infof("http server listening on %s", s.serverAddress)
		errCh <- s.app.Listen(s.serverAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Infof("shutting down http server")
		return s.app.ShutdownWithContext(context.Background())
	}
}
