// Package server provides the student and admin web sites of the admission portal.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/raphaelgruber/uniassist/internal/service"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Accounts manages student and admin accounts.
type Accounts interface {
	RegisterUser(ctx context.Context, name, email, password string) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	User(ctx context.Context, id string) (*models.User, error)
	RegisterAdmin(ctx context.Context, name, adminID, password string) (*models.Admin, error)
	AuthenticateAdmin(ctx context.Context, adminID, password string) (*models.Admin, error)
	Admin(ctx context.Context, id string) (*models.Admin, error)
}

// Applications manages admission applications.
type Applications interface {
	Submit(ctx context.Context, in models.ApplicationInput) (*models.Application, error)
	ForUser(ctx context.Context, userID string) (*models.Application, error)
	Applicants(ctx context.Context) ([]models.ApplicantRecord, error)
	Counts(ctx context.Context) (db.RecordCounts, error)
}

// Chat runs chat exchanges with the admission assistant.
type Chat interface {
	Send(ctx context.Context, userID, message string) (service.ChatResult, error)
	History(ctx context.Context, userID string) ([]models.Turn, error)
}

// NewHTTPServer creates an http.Server for one site. writeTimeout must exceed
// the agent timeout so chat replies are not cut off.
func NewHTTPServer(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, srv, ln, logger)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return <-errCh
}
