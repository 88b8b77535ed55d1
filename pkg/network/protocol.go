package network

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net"
	"time"
)

// -------------------- Tipos de Mensaje --------------------

type TaskRequest struct {
	RequestID string // se propaga a los logs del nodo
	Title     string // título exacto a consultar
}

type TaskResponse struct {
	Movies   []Movie
	NotFound bool   // el título no existe en el corpus del nodo
	Err      string // cualquier otro error del nodo
}

// Movie replica recommender.Movie para no acoplar el protocolo al motor.
type Movie struct {
	ID       int
	Overview string
	Title    string
	Genre    []string
	Cast     []string
}

// ErrRemoteNotFound se devuelve cuando el nodo no conoce el título.
var ErrRemoteNotFound = errors.New("network: título no encontrado en el nodo")

// RemoteError es un error reportado por el nodo.
type RemoteError struct {
	Addr string
	Msg  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("nodo %s: %s", e.Addr, e.Msg)
}

// -------------------- Utilidades --------------------

// Enviar mensaje genérico
func Send(conn net.Conn, v any) error {
	enc := gob.NewEncoder(conn)
	return enc.Encode(v)
}

// Recibir mensaje genérico
func Receive(conn net.Conn, v any) error {
	dec := gob.NewDecoder(conn)
	return dec.Decode(v)
}

// Ask abre una conexión, envía la consulta y espera la respuesta. El plazo
// de ctx se aplica a toda la conversación.
func Ask(ctx context.Context, addr string, req TaskRequest) ([]Movie, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return Exchange(ctx, conn, addr, req)
}

// Exchange hace el intercambio sobre una conexión ya abierta.
func Exchange(ctx context.Context, conn net.Conn, addr string, req TaskRequest) ([]Movie, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	if err := Send(conn, req); err != nil {
		return nil, fmt.Errorf("enviando a %s: %w", addr, err)
	}
	var resp TaskResponse
	if err := Receive(conn, &resp); err != nil {
		return nil, fmt.Errorf("recibiendo de %s: %w", addr, err)
	}

	switch {
	case resp.NotFound:
		return nil, ErrRemoteNotFound
	case resp.Err != "":
		return nil, &RemoteError{Addr: addr, Msg: resp.Err}
	}
	return resp.Movies, nil
}

func init() {
	// Registrar tipos para que gob pueda codificarlos
	gob.Register(TaskRequest{})
	gob.Register(TaskResponse{})
	gob.Register(Movie{})
}
