// Package node atiende consultas de recomendación por TCP con el
// protocolo gob de pkg/network.
package node

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/metrics"
	"pcd-recommender/internal/recommender"
	"pcd-recommender/pkg/network"
)

// Engine es lo que el nodo necesita del motor.
type Engine interface {
	GetRecommendations(title string) ([]recommender.Movie, error)
}

// Server acepta conexiones y responde una consulta por conexión.
// Serve implementa suture.Service.
type Server struct {
	addr    string
	engine  Engine
	timeout time.Duration

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, engine Engine, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{addr: addr, engine: engine, timeout: timeout}
}

// Addr devuelve la dirección real de escucha (útil con puerto 0).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	logging.Info().Str("addr", ln.Addr().String()).Msg("nodo escuchando")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logging.Warn().Err(err).Msg("error aceptando conexión")
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	var req network.TaskRequest
	if err := network.Receive(conn, &req); err != nil {
		logging.Warn().Err(err).Str("remoto", conn.RemoteAddr().String()).Msg("error recibiendo")
		return
	}

	ctx := logging.ContextWithRequestID(context.Background(), req.RequestID)
	resp := s.Handle(ctx, req)

	if err := network.Send(conn, resp); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("error enviando respuesta")
	}
}

// Handle resuelve una consulta con el motor local.
func (s *Server) Handle(ctx context.Context, req network.TaskRequest) network.TaskResponse {
	start := time.Now()
	recs, err := s.engine.GetRecommendations(req.Title)
	outcome := recommender.Outcome(err)
	metrics.RecordRequest("tcp", outcome, time.Since(start))

	log := logging.Ctx(ctx)
	switch {
	case err == nil:
		log.Debug().Str("title", req.Title).Int("resultados", len(recs)).Msg("consulta atendida")
		movies := make([]network.Movie, len(recs))
		for i, m := range recs {
			movies[i] = network.Movie{ID: m.ID, Overview: m.Overview, Title: m.Title, Genre: m.Genre, Cast: m.Cast}
		}
		return network.TaskResponse{Movies: movies}
	case errors.Is(err, recommender.ErrNotFound):
		log.Debug().Str("title", req.Title).Msg("título no encontrado")
		return network.TaskResponse{NotFound: true}
	default:
		log.Error().Err(err).Str("title", req.Title).Msg("error en recomendación")
		return network.TaskResponse{Err: err.Error()}
	}
}

func (s *Server) String() string { return "nodo-tcp" }
