// Package index resuelve un título exacto a su fila en la tabla unida.
package index

import (
	"errors"
	"fmt"
)

// ErrNotFound indica que el título no está en el índice.
var ErrNotFound = errors.New("index: título no encontrado")

// NotFoundError conserva el título consultado.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no se encontró la película %q", e.Title)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TitleIndex es de solo lectura una vez construido.
type TitleIndex struct {
	rows       map[string]int
	duplicates []string
}

// Build recorre los títulos en orden de fila. Si un título se repite, la
// última aparición reemplaza a las anteriores; los títulos repetidos
// quedan en Duplicates.
func Build(titles []string) *TitleIndex {
	idx := &TitleIndex{rows: make(map[string]int, len(titles))}
	seenDup := make(map[string]bool)
	for row, title := range titles {
		if _, exists := idx.rows[title]; exists && !seenDup[title] {
			seenDup[title] = true
			idx.duplicates = append(idx.duplicates, title)
		}
		idx.rows[title] = row
	}
	return idx
}

// Lookup compara el texto tal cual: sin recortar espacios ni ignorar
// mayúsculas.
func (x *TitleIndex) Lookup(title string) (int, error) {
	row, ok := x.rows[title]
	if !ok {
		return 0, &NotFoundError{Title: title}
	}
	return row, nil
}

// Len es la cantidad de títulos distintos.
func (x *TitleIndex) Len() int { return len(x.rows) }

// Duplicates lista, en orden de primera repetición, los títulos que
// aparecen en más de una fila.
func (x *TitleIndex) Duplicates() []string {
	out := make([]string, len(x.duplicates))
	copy(out, x.duplicates)
	return out
}
