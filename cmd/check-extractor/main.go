package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/external/openai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/utils"
)

var samples = []string{
	"My friend Sam is coming tomorrow for 2 hours",
	"I need leave from tomorrow to the day after, going home for a family function",
	"The fan in my room is broken",
	"Can you clean my room on Saturday?",
	"What are the guest rules?",
}

func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "OpenAI compatible endpoint")
	model := flag.String("model", "gpt-4o-mini", "Chat model")
	promptsPath := flag.String("prompts", "configs/prompts.yaml", "Path to prompts.yaml")
	text := flag.String("text", "", "Single message to extract; defaults to a built-in sample set")
	lexical := flag.Bool("lexical", false, "Use the offline lexical extractor")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger, err := utils.NewCLILogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var extractor port.EntityExtractor
	if *lexical {
		extractor = ai.NewLexicalExtractor(classifier.NewRuleStore(nil))
		fmt.Println("=== Lexical Extractor Check ===")
	} else {
		if *apiKey == "" {
			*apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if *apiKey == "" {
			fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
			fmt.Fprintf(os.Stderr, "Usage: check-extractor --key sk-... [--text \"...\"] [--lexical]\n")
			os.Exit(1)
		}

		prompts, err := openai.LoadPrompts(*promptsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to load prompts: %v\n", err)
			os.Exit(1)
		}
		extractor = openai.NewExtractor(openai.NewClient(*apiKey, *baseURL), *model, prompts, *timeout, logger)
		fmt.Printf("=== OpenAI Extractor Check (%s) ===\n", *model)
	}

	messages := samples
	if *text != "" {
		messages = []string{*text}
	}

	now := time.Now()
	uc := entity.UserContext{
		Profile: entity.ResidentProfile{UserID: "check", RoomNumber: "A-101", Block: "A"},
		Today:   now.Format("2006-01-02"),
		Weekday: now.Weekday().String(),
	}
	gate := ai.DefaultConfidenceGate()

	failed := 0
	for i, msg := range messages {
		fmt.Printf("\n[%d] %s\n", i+1, msg)

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		started := time.Now()
		result, err := extractor.Extract(ctx, msg, uc)
		cancel()
		if err != nil {
			fmt.Printf("    ERROR after %v: %v\n", time.Since(started).Round(time.Millisecond), err)
			failed++
			continue
		}

		decision := gate.Assess(result, false)
		out, _ := json.MarshalIndent(result, "    ", "  ")
		fmt.Printf("    %s\n", out)
		fmt.Printf("    gate: %s (%s), %v\n", decision.Outcome, decision.Rationale, time.Since(started).Round(time.Millisecond))
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d of %d extractions failed\n", failed, len(messages))
		os.Exit(1)
	}
	fmt.Printf("All %d extractions succeeded\n", len(messages))
}
