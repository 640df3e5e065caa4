package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeelanGov/thandi/internal/pipeline"
	"github.com/SeelanGov/thandi/internal/worker"
)

var (
	concurrency  int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <requests.jsonl>",
	Short: "Answer many guidance requests from a JSONL file",
	Long: `Batch runs one guidance request per input line with a bounded worker pool.
Each line is a JSON object: {"id": "...", "questionText": "...", "profile": {...}}.
Blank lines and lines starting with # are skipped. Output is one JSON object
per input line, in input order, with either a result or an error code.

Example:
  thandi batch requests.jsonl
  thandi batch requests.jsonl --concurrency 8 --output results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent requests (default: worker.concurrency)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output JSONL path (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = appConfig.Worker.Concurrency
	}

	logger, err := newLogger(appConfig)
	if err != nil {
		return err
	}

	items, err := worker.ReadItemsFile(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Thandi Batch Guidance\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Requests:     %d\n", len(items))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	rt, err := pipeline.Build(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	start := time.Now()
	outcomes := worker.NewBatchProcessor(rt.Pipeline, workers, logger).Process(ctx, items)

	var w io.Writer = cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}
	if err := worker.WriteOutcomes(w, outcomes); err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err() != nil {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "✓ %d answered, %d failed in %v\n", len(outcomes)-failed, failed, time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(outcomes))
	}
	return nil
}
