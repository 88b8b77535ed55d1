package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDataLoad agrupa cualquier falla al leer o validar las fuentes.
	ErrDataLoad = errors.New("dataset: no se pudo cargar")

	// ErrMalformedRecord indica que una lista embebida (genres, cast) no se pudo parsear.
	ErrMalformedRecord = errors.New("dataset: registro malformado")
)

// DataLoadError describe dónde falló la carga. Row es 1-based contando
// el encabezado; 0 cuando el error no es de una fila concreta.
type DataLoadError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := "cargando " + e.Source
	if e.Row > 0 {
		msg += fmt.Sprintf(" fila %d", e.Row)
	}
	if e.Column != "" {
		msg += " columna " + e.Column
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() error { return e.Err }

func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// MalformedRecordError identifica la película y el campo que no se pudo leer.
type MalformedRecordError struct {
	ID    int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("película %d: campo %s malformado: %v", e.ID, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }
