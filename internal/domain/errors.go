package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Categorias de error compartidas por cliente y backend.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrValidation        = errors.New("validation error")
	ErrUpstream          = errors.New("upstream error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrConflict          = errors.New("conflict")
	ErrAuth              = errors.New("authentication failed")
)

// ConfigurationError indica un ajuste faltante o invalido; no es recuperable en runtime.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: %s is not set", e.Setting)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError agrupa mensajes por campo.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Message devuelve el primer mensaje en orden de campo, apto para mostrar al usuario.
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "invalid request"
	}
	return e.Fields[keys[0]]
}

// UpstreamError representa una respuesta no-2xx de un proveedor externo.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// MalformedResponseError representa un 2xx cuyo payload no se pudo decodificar.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return "malformed response"
	}
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }
