package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pcd-recommender/internal/logging"
)

// HTTPServer es la parte de *http.Server que usa HTTPService.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapta un servidor HTTP a suture.Service: corre
// ListenAndServe hasta que ctx se cancela y luego hace Shutdown.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		logging.Info().Msg("deteniendo servidor HTTP")
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(sctx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }
