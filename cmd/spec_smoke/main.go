package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"specflow/internal/config"
	"specflow/internal/generator"
	"specflow/internal/llm"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario es una idea de producto con lo minimo que esperamos ver en la spec.
type Scenario struct {
	Name       string
	Idea       string
	ImagePath  string
	Keywords   []string
	MinStories int
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := llm.NewHTTPClient(llm.Options{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		TextModel:   cfg.LLMTextModel,
		VisionModel: cfg.LLMVisionModel,
	}, logger)

	scenarios := []Scenario{
		{Name: "Todo basico", Idea: "A todo app with due dates and reminders", Keywords: []string{"due", "remind"}, MinStories: 2},
		{Name: "Marketplace", Idea: "Marketplace where local bakers sell bread to neighbors with pickup slots", Keywords: []string{"baker", "pickup"}, MinStories: 3},
		{Name: "Idea ambigua", Idea: "something for dogs", MinStories: 1},
	}
	if len(os.Args) > 1 {
		scenarios = append(scenarios, Scenario{Name: "Boceto", ImagePath: os.Args[1], MinStories: 1})
	}

	var total, failed int
	for _, sc := range scenarios {
		fmt.Printf("%s[%s]%s %s\n", colorCyan, sc.Name, colorReset, sc.Idea)

		view := generator.NewView(client)
		view.SetText(sc.Idea)
		if sc.ImagePath != "" {
			if err := view.AttachImageFile(sc.ImagePath); err != nil {
				log.Fatalf("attach image: %v", err)
			}
		}

		start := time.Now()
		_, _ = view.Submit(ctx)
		snap := view.Snapshot()
		if snap.Err != nil || snap.Result == nil {
			failed++
			fmt.Printf("%sFALLO%s %s\n\n", colorRed, colorReset, generator.ErrorMessage(snap.Err))
			continue
		}
		_ = generator.Render(os.Stdout, *snap.Result)

		ev := evaluateSpec(*snap.Result, sc)
		total += ev.Score
		color := colorGreen
		if ev.Score < 3 {
			color = colorRed
		}
		fmt.Printf("%sScore %d/5%s en %s\n", color, ev.Score, colorReset, time.Since(start).Round(time.Millisecond))
		for _, issue := range ev.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		fmt.Println()
	}

	n := len(scenarios) - failed
	fmt.Println("==== Resumen ====")
	if n > 0 {
		fmt.Printf("Promedio: %.2f/5 | Fallos: %d/%d\n", float64(total)/float64(n), failed, len(scenarios))
	} else {
		fmt.Printf("Todas las generaciones fallaron (%d)\n", failed)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
