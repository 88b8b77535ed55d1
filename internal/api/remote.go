package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/metrics"
	"pcd-recommender/internal/recommender"
	"pcd-recommender/pkg/network"
)

// AskFunc hace una consulta a un nodo. Por defecto network.Ask.
type AskFunc func(ctx context.Context, addr string, req network.TaskRequest) ([]network.Movie, error)

// -----------------------------------------------------------
// PROCESO DISTRIBUIDO: API → nodos
// -----------------------------------------------------------

// NodePool reenvía cada consulta al primer nodo que responda. Si un nodo
// falla (conexión, timeout o error interno) se prueba el siguiente; un
// "no encontrado" es respuesta válida y no se reintenta.
type NodePool struct {
	nodes   []string
	timeout time.Duration
	ask     AskFunc
}

func NewNodePool(nodes []string, timeout time.Duration) *NodePool {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NodePool{nodes: nodes, timeout: timeout, ask: network.Ask}
}

// ErrNoNodes: ningún nodo pudo atender la consulta.
var ErrNoNodes = errors.New("api: ningún nodo disponible")

func (p *NodePool) Recommend(ctx context.Context, title string) ([]recommender.Movie, string, error) {
	log := logging.Ctx(ctx)
	req := network.TaskRequest{RequestID: logging.RequestIDFromContext(ctx), Title: title}

	var lastErr error
	for _, addr := range p.nodes {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		nctx, cancel := context.WithTimeout(ctx, p.timeout)
		movies, err := p.ask(nctx, addr, req)
		cancel()

		switch {
		case err == nil:
			metrics.NodeRequests.WithLabelValues(addr, "ok").Inc()
			return fromWire(movies), addr, nil
		case errors.Is(err, network.ErrRemoteNotFound):
			metrics.NodeRequests.WithLabelValues(addr, "not_found").Inc()
			return nil, addr, &notFoundFromNode{title: title}
		default:
			metrics.NodeRequests.WithLabelValues(addr, "error").Inc()
			log.Warn().Err(err).Str("nodo", addr).Msg("nodo no respondió, probando el siguiente")
			lastErr = err
		}
	}
	if lastErr == nil {
		return nil, "", ErrNoNodes
	}
	return nil, "", fmt.Errorf("%w: %v", ErrNoNodes, lastErr)
}

// notFoundFromNode hace que recommender.Outcome clasifique la respuesta
// del nodo igual que un ErrNotFound local.
type notFoundFromNode struct{ title string }

func (e *notFoundFromNode) Error() string {
	return fmt.Sprintf("título no encontrado en el nodo: %q", e.title)
}

func (e *notFoundFromNode) Is(target error) bool { return target == recommender.ErrNotFound }

func fromWire(in []network.Movie) []recommender.Movie {
	out := make([]recommender.Movie, len(in))
	for i, m := range in {
		out[i] = recommender.Movie{
			ID:       m.ID,
			Overview: m.Overview,
			Title:    m.Title,
			Genre:    nonNil(m.Genre),
			Cast:     nonNil(m.Cast),
		}
	}
	return out
}

// gob no distingue slice vacío de nil; en JSON debe salir [].
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
