package generator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"specflow/internal/domain"
)

// Render escribe la especificacion en texto plano. Cada campo es opcional.
func Render(w io.Writer, spec domain.GeneratedSpec) error {
	bw := bufio.NewWriter(w)

	if spec.Title != "" {
		fmt.Fprintf(bw, "# %s\n\n", spec.Title)
	}
	if spec.Summary != "" {
		fmt.Fprintf(bw, "%s\n\n", spec.Summary)
	}
	if spec.UserStories != nil {
		renderList(bw, "User Stories", spec.UserStories)
	}
	if spec.AcceptanceCriteria != nil {
		renderList(bw, "Acceptance Criteria", spec.AcceptanceCriteria)
	}
	if strings.TrimSpace(spec.TechnicalNotes) != "" {
		fmt.Fprintf(bw, "## Technical Notes\n%s\n", spec.TechnicalNotes)
	}
	return bw.Flush()
}

func renderList(w io.Writer, heading string, items []string) {
	fmt.Fprintf(w, "## %s\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintln(w)
}

// RenderSnapshot dibuja el estado de carga, vacio, error o resultado.
func RenderSnapshot(w io.Writer, snap Snapshot) error {
	switch snap.State {
	case StateSubmitting:
		_, err := fmt.Fprintln(w, "Generating spec...")
		return err
	case StateFailed:
		_, err := fmt.Fprintf(w, "Error: %s\n", ErrorMessage(snap.Err))
		return err
	case StateSuccess:
		if snap.Result == nil || snap.Result.IsEmpty() {
			_, err := fmt.Fprintln(w, "The model returned an empty spec. Try rephrasing your idea.")
			return err
		}
		return Render(w, *snap.Result)
	default:
		_, err := fmt.Fprintln(w, "Describe your idea, attach an image or dictate, then submit to generate a spec.")
		return err
	}
}

// ErrorMessage convierte un error de generacion en un mensaje para el usuario.
func ErrorMessage(err error) string {
	var upstream *domain.UpstreamError
	var shown interface{ UserMessage() string }
	switch {
	case err == nil:
		return ""
	case errors.As(err, &shown) && shown.UserMessage() != "":
		return shown.UserMessage()
	case errors.Is(err, domain.ErrConfiguration):
		return "The generator is not configured. Set LLM_API_KEY and try again."
	case errors.As(err, &upstream):
		return upstream.Message
	case errors.Is(err, domain.ErrMalformedResponse):
		return "The model returned an unexpected response. Please try again."
	default:
		return "Failed to generate spec. Please try again."
	}
}
