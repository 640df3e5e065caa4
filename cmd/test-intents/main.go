// Test program that prints the extracted intent and safety screen for a set
// of learner questions, without touching the knowledge store or any model
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/SeelanGov/thandi/internal/extract"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/safety"
)

var sampleQuestions = []string{
	"I hate math but love biology and want remote income",
	"I want fast income but also ten years to specialize",
	"Should I drop out to do a coding course?",
	"My family can't afford university fees",
	"Should I become a web developer or a doctor?",
	"What can I do without matric?",
}

func main() {
	tables, err := knowledge.Load(os.Getenv("THANDI_KNOWLEDGE_TABLES_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	extractor := extract.NewIntentExtractor(tables)
	scanner := safety.NewScanner(tables)

	questions := sampleQuestions
	if len(os.Args) > 1 && os.Args[1] == "-" {
		questions = nil
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
			if q := strings.TrimSpace(in.Text()); q != "" {
				questions = append(questions, q)
			}
		}
	} else if len(os.Args) > 1 {
		questions = []string{strings.Join(os.Args[1:], " ")}
	}

	fmt.Println("=== Intent Extraction Test ===")
	fmt.Println()

	for _, q := range questions {
		fmt.Printf("Q: %s\n", q)
		fmt.Println(strings.Repeat("-", 60))

		if m, ok := scanner.Scan(q); ok {
			fmt.Printf("  ⚠️  SAFETY: %s (pattern %s)\n\n", m.Category, m.Pattern)
			continue
		}

		intent := extractor.Extract(q)
		fmt.Printf("  Primary:   %s\n", intent.Primary)
		if len(intent.NegatedSubjects) > 0 {
			fmt.Printf("  Avoids:    %s\n", strings.Join(intent.NegatedSubjects, ", "))
		}
		if len(intent.FavoredSubjects) > 0 {
			fmt.Printf("  Enjoys:    %s\n", strings.Join(intent.FavoredSubjects, ", "))
		}
		if len(intent.ExplicitCareers) > 0 {
			fmt.Printf("  Named:     %s\n", strings.Join(intent.ExplicitCareers, ", "))
		}
		for _, c := range intent.Conflicts {
			fmt.Printf("  Conflict:  %s (%s vs %s) evidence=%v\n", c.Rule, c.A, c.B, c.Evidence)
		}
		fmt.Printf("  Flags:     remote=%v fast=%v high_income=%v funding=%v\n",
			intent.WantsRemote, intent.WantsFastPace, intent.WantsHighIncome, intent.NeedsFunding)
		for _, m := range intent.Matched {
			fmt.Printf("    - %s <- %q\n", m.Rule, m.Phrase)
		}
		fmt.Println()
	}
}
