package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// GeneratedSpec es la especificacion producida por el LLM. Todos los campos son opcionales:
// una lista nil significa ausente, una lista vacia no-nil significa presente pero vacia.
type GeneratedSpec struct {
	Title              string   `json:"title,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	UserStories        []string `json:"userStories"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	TechnicalNotes     string   `json:"technicalNotes,omitempty"`
}

// IsEmpty reporta si ningun campo vino poblado.
func (s GeneratedSpec) IsEmpty() bool {
	return s.Title == "" && s.Summary == "" && s.TechnicalNotes == "" &&
		s.UserStories == nil && s.AcceptanceCriteria == nil
}

var errNotObject = errors.New("document is not a json object")

// DecodeGeneratedSpec valida y normaliza un documento JSON arbitrario.
// Es el unico punto donde un payload dinamico se convierte en GeneratedSpec.
func DecodeGeneratedSpec(raw []byte) (GeneratedSpec, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if len(trimmed) > 0 && json.Valid(trimmed) {
			return GeneratedSpec{}, &MalformedResponseError{Err: errNotObject}
		}
		return GeneratedSpec{}, &MalformedResponseError{Err: errors.New("content is not valid json")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return GeneratedSpec{}, &MalformedResponseError{Err: err}
	}

	return GeneratedSpec{
		Title:              coerceString(fields["title"]),
		Summary:            coerceString(fields["summary"]),
		UserStories:        coerceList(fields["userStories"]),
		AcceptanceCriteria: coerceList(fields["acceptanceCriteria"]),
		TechnicalNotes:     coerceString(fields["technicalNotes"]),
	}, nil
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		// Algunos modelos devuelven notas como lista de lineas.
		lines := coerceList(raw)
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func coerceList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []string{}
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := coerceItem(item); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func coerceItem(item any) (string, bool) {
	switch t := item.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
