package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeelanGov/thandi/internal/llm"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/pipeline"
	"github.com/SeelanGov/thandi/internal/search"
)

var (
	askGrade       int
	askLiked       []string
	askDisliked    []string
	askInterests   []string
	askNeed        string
	askConstraints string
	askJSON        bool
	askExplain     bool
	askCheck       bool
	askTimeout     time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one career-guidance question",
	Long: `Ask runs the full guidance pipeline for one question:
- Screen the question for high-stakes topics
- Extract intent (interests, avoided subjects, conflicting goals)
- Retrieve and re-rank knowledge chunks
- Generate an answer and validate it, retrying or falling back when needed

Example:
  thandi ask "I hate math but love biology and want remote income" --grade 11
  thandi ask "My family can't afford university fees" --need high --json
  thandi ask "I want fast income but also ten years to specialize" --explain
  thandi ask --check`,
	Args: func(cmd *cobra.Command, args []string) error {
		if askCheck {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().IntVar(&askGrade, "grade", 0, "learner grade (8-12)")
	askCmd.Flags().StringSliceVar(&askLiked, "like", nil, "subjects the learner enjoys (repeatable)")
	askCmd.Flags().StringSliceVar(&askDisliked, "dislike", nil, "subjects the learner avoids (repeatable)")
	askCmd.Flags().StringSliceVar(&askInterests, "interest", nil, "hobbies and interests (repeatable)")
	askCmd.Flags().StringVar(&askNeed, "need", "", "financial need tier (none, moderate, high)")
	askCmd.Flags().StringVar(&askConstraints, "constraints", "", "free-text constraints")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	askCmd.Flags().BoolVar(&askExplain, "explain", false, "show intent, ranking and context without generating")
	askCmd.Flags().BoolVar(&askCheck, "check", false, "check that the configured providers are reachable and exit")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall request timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	logger, err := newLogger(appConfig)
	if err != nil {
		return err
	}

	rt, err := pipeline.Build(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	out := cmd.OutOrStdout()
	if askCheck {
		return checkProviders(ctx, out, rt)
	}

	q := model.Query{Text: strings.Join(args, " "), Profile: askProfile()}

	if askExplain {
		retrieval, err := rt.Pipeline.Retrieve(ctx, q)
		if err != nil {
			return err
		}
		return printRetrieval(out, retrieval)
	}

	res, err := rt.Pipeline.Guide(ctx, q)
	if askJSON && res != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("guidance failed: %w", err)
	}

	fmt.Fprintln(out, res.Answer)
	if verbose {
		m := res.Meta
		fmt.Fprintf(os.Stderr, "\nrequest=%s provider=%s model=%s attempts=%d fallback=%v chunks=%d elapsed=%v\n",
			m.RequestID, m.Provider, m.Model, m.Attempts, m.UsedFallback, m.ChunksUsed, m.Elapsed.Round(time.Millisecond))
	}
	return nil
}

// askProfile returns nil when no profile flag was given
func askProfile() *model.Profile {
	p := &model.Profile{
		Grade:            askGrade,
		LikedSubjects:    askLiked,
		DislikedSubjects: askDisliked,
		Interests:        askInterests,
		FinancialNeed:    model.FinancialNeed(strings.ToLower(askNeed)),
		Constraints:      askConstraints,
	}
	if p.Grade == 0 && len(p.LikedSubjects) == 0 && len(p.DislikedSubjects) == 0 &&
		len(p.Interests) == 0 && p.FinancialNeed == "" && p.Constraints == "" {
		return nil
	}
	return p
}

func checkProviders(ctx context.Context, out io.Writer, rt *pipeline.Runtime) error {
	ok := true
	for _, slot := range []struct {
		name string
		p    llm.Provider
	}{{"primary", rt.Primary}, {"secondary", rt.Secondary}} {
		if slot.p == nil {
			fmt.Fprintf(out, "  %-9s  disabled\n", slot.name)
			continue
		}
		status := "✓ reachable"
		if !slot.p.IsAvailable(ctx) {
			status = "✗ unavailable"
			if slot.name == "primary" {
				ok = false
			}
		}
		fmt.Fprintf(out, "  %-9s  %s/%s  %s\n", slot.name, slot.p.Name(), slot.p.Model(), status)
	}
	fmt.Fprintf(out, "  %-9s  %s\n", "embedding", rt.Embedder.Name())
	if !ok {
		return fmt.Errorf("primary provider is not available")
	}
	return nil
}

func printRetrieval(out io.Writer, r *pipeline.Retrieval) error {
	in := r.Intent
	fmt.Fprintf(out, "Intent: %s\n", in.Primary)
	if len(in.NegatedSubjects) > 0 {
		fmt.Fprintf(out, "  avoids:   %s\n", strings.Join(in.NegatedSubjects, ", "))
	}
	if len(in.FavoredSubjects) > 0 {
		fmt.Fprintf(out, "  enjoys:   %s\n", strings.Join(in.FavoredSubjects, ", "))
	}
	if len(in.ExplicitCareers) > 0 {
		fmt.Fprintf(out, "  named:    %s\n", strings.Join(in.ExplicitCareers, ", "))
	}
	for _, c := range in.Conflicts {
		fmt.Fprintf(out, "  conflict: %s (%s vs %s)\n", c.Rule, c.A, c.B)
	}
	if in.NeedsFunding {
		fmt.Fprintln(out, "  needs funding")
	}

	fmt.Fprintf(out, "\nPasses:")
	for _, pass := range []string{search.PassExplicit, search.PassIntent, search.PassSemantic} {
		if n, ok := r.Search.PassCounts[pass]; ok {
			fmt.Fprintf(out, " %s=%d", pass, n)
		}
		if err := r.Search.PassErrors[pass]; err != nil {
			fmt.Fprintf(out, " %s=error(%v)", pass, err)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "\nRanked (%d):\n", len(r.Ranked))
	for i, c := range r.Ranked {
		if i == 15 {
			fmt.Fprintf(out, "  ... %d more\n", len(r.Ranked)-i)
			break
		}
		var adj []string
		for _, a := range c.Breakdown {
			adj = append(adj, fmt.Sprintf("%s%+.2f", a.Name, a.Value))
		}
		fmt.Fprintf(out, "  %2d. %.2f  %-16s %-24s %s\n", i+1, c.Score, c.Provenance, c.Chunk.Attributes.CareerID, strings.Join(adj, " "))
	}

	fmt.Fprintf(out, "\nContext: %d chunks, %d/%d tokens", r.Context.ChunkCount, r.Context.TokenCount, r.Context.TokenBudget)
	if len(r.Context.Frameworks) > 0 {
		fmt.Fprintf(out, ", frameworks: %s", strings.Join(r.Context.Frameworks, ", "))
	}
	fmt.Fprintln(out)
	return nil
}
