package main

import (
	"strings"

	"specflow/internal/domain"
)

// evaluation resume cuan completa es una spec generada.
type evaluation struct {
	Score  int
	Issues []string
}

// evaluateSpec puntua la spec con heuristicas estructurales; arranca en 5 y descuenta por cada hueco.
func evaluateSpec(spec domain.GeneratedSpec, sc Scenario) evaluation {
	ev := evaluation{Score: 5}
	penalize := func(issue string) {
		ev.Score--
		ev.Issues = append(ev.Issues, issue)
	}

	if strings.TrimSpace(spec.Title) == "" {
		penalize("sin titulo")
	}
	if strings.TrimSpace(spec.Summary) == "" {
		penalize("sin resumen")
	}
	switch {
	case spec.UserStories == nil:
		penalize("faltan user stories")
	case len(spec.UserStories) < sc.MinStories:
		penalize("pocas user stories")
	}
	if len(spec.AcceptanceCriteria) == 0 {
		penalize("sin criterios de aceptacion")
	}
	if missing := missingKeywords(spec, sc.Keywords); len(missing) > 0 {
		penalize("no menciona: " + strings.Join(missing, ", "))
	}

	ev.Score = clamp1to5(ev.Score)
	return ev
}

func missingKeywords(spec domain.GeneratedSpec, keywords []string) []string {
	text := strings.ToLower(strings.Join(append(append([]string{spec.Title, spec.Summary, spec.TechnicalNotes},
		spec.UserStories...), spec.AcceptanceCriteria...), " "))
	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(text, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	return missing
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
