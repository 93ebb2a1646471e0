package main

import (
	"strings"
	"testing"

	"specflow/internal/domain"
)

func TestEvaluateSpecComplete(t *testing.T) {
	spec := domain.GeneratedSpec{
		Title:              "Bakery Marketplace",
		Summary:            "Neighbors reserve bread from local bakers.",
		UserStories:        []string{"As a buyer I pick a pickup slot", "As a baker I list bread", "As a buyer I pay online"},
		AcceptanceCriteria: []string{"Slots cannot be double booked"},
	}
	ev := evaluateSpec(spec, Scenario{Keywords: []string{"baker", "pickup"}, MinStories: 3})
	if ev.Score != 5 || len(ev.Issues) != 0 {
		t.Fatalf("expected perfect score, got %+v", ev)
	}
}

func TestEvaluateSpecAbsentVersusShort(t *testing.T) {
	absent := evaluateSpec(domain.GeneratedSpec{Title: "x", Summary: "y", AcceptanceCriteria: []string{"z"}}, Scenario{MinStories: 1})
	if absent.Score != 4 || !strings.Contains(absent.Issues[0], "faltan") {
		t.Fatalf("expected missing stories issue, got %+v", absent)
	}

	short := evaluateSpec(domain.GeneratedSpec{Title: "x", Summary: "y", UserStories: []string{}, AcceptanceCriteria: []string{"z"}}, Scenario{MinStories: 1})
	if short.Score != 4 || !strings.Contains(short.Issues[0], "pocas") {
		t.Fatalf("expected short stories issue, got %+v", short)
	}
}

func TestEvaluateSpecClampsAtOne(t *testing.T) {
	ev := evaluateSpec(domain.GeneratedSpec{}, Scenario{Keywords: []string{"dog"}, MinStories: 1})
	if ev.Score != 1 {
		t.Fatalf("expected score clamped to 1, got %d", ev.Score)
	}
	if len(ev.Issues) != 5 {
		t.Fatalf("expected every gap reported, got %v", ev.Issues)
	}
}
