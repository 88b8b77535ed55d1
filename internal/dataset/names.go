package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Genres devuelve los nombres de la lista embebida de géneros.
func (r MovieRecord) Genres() ([]string, error) {
	names, err := ParseNames(r.GenresRaw)
	if err != nil {
		return nil, &MalformedRecordError{ID: r.ID, Field: "genres", Err: err}
	}
	return names, nil
}

// Cast devuelve los nombres del elenco.
func (r MovieRecord) Cast() ([]string, error) {
	names, err := ParseNames(r.CastRaw)
	if err != nil {
		return nil, &MalformedRecordError{ID: r.ID, Field: "cast", Err: err}
	}
	return names, nil
}

// ParseNames lee una lista serializada de objetos con campo "name", por
// ejemplo `[{"id": 28, "name": "Action"}]`, y devuelve los nombres en
// orden. También acepta la forma con comillas simples que deja un
// volcado de Python. Cualquier otra cosa es un error.
func ParseNames(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("lista vacía o ausente")
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		converted, cerr := pythonToJSON(raw)
		if cerr != nil {
			return nil, fmt.Errorf("no es una lista de objetos: %w", err)
		}
		if err := json.Unmarshal([]byte(converted), &items); err != nil {
			return nil, fmt.Errorf("no es una lista de objetos: %w", err)
		}
	}

	names := make([]string, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("elemento %d no es un objeto", i)
		}
		v, ok := item["name"]
		if !ok {
			return nil, fmt.Errorf("elemento %d sin campo name", i)
		}
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("elemento %d: name no es texto", i)
		}
		names = append(names, name)
	}
	return names, nil
}

// pythonToJSON reescribe literales de Python (comillas simples, True,
// False, None) a JSON. Solo toca lo que está fuera de strings.
func pythonToJSON(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(s):
				next := s[i+1]
				if next == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte('\\')
					b.WriteByte(next)
				}
				i++
			case c == quote:
				b.WriteByte('"')
				quote = 0
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte('"')
		case strings.HasPrefix(s[i:], "True"):
			b.WriteString("true")
			i += len("True") - 1
		case strings.HasPrefix(s[i:], "False"):
			b.WriteString("false")
			i += len("False") - 1
		case strings.HasPrefix(s[i:], "None"):
			b.WriteString("null")
			i += len("None") - 1
		default:
			b.WriteByte(c)
		}
	}

	if quote != 0 {
		return "", errors.New("string sin cerrar")
	}
	return b.String(), nil
}
