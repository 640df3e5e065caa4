package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/request"
)

const maxLineBytes = 1 << 20

// Guider answers one guidance query
type Guider interface {
	Guide(ctx context.Context, q model.Query) (*model.GenerationResult, error)
}

// Item is one line of a JSONL batch file. Err is set when the line could not
// be decoded; such items are reported without calling the pipeline.
type Item struct {
	Line     int
	Envelope request.Envelope
	Err      error
}

// GuidanceTask runs one batch item
type GuidanceTask struct {
	Item   Item
	Guider Guider
}

// Run executes the task
func (t *GuidanceTask) Run(ctx context.Context) Outcome {
	out := &GuidanceOutcome{Line: t.Item.Line, ID: t.Item.Envelope.ID}
	start := time.Now()
	res, err := t.Guider.Guide(ctx, t.Item.Envelope.Query)
	out.Elapsed = time.Since(start)
	out.Result = res
	out.setError(err)
	return out
}

// GuidanceOutcome is the per-line batch output
type GuidanceOutcome struct {
	Line      int                     `json:"line"`
	ID        string                  `json:"id,omitempty"`
	Result    *model.GenerationResult `json:"result,omitempty"`
	ErrorCode model.ErrorCode         `json:"errorCode,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Elapsed   time.Duration           `json:"elapsedNs"`
	err       error
}

// Err returns the pipeline error, if any
func (o *GuidanceOutcome) Err() error {
	return o.err
}

func (o *GuidanceOutcome) setError(err error) {
	if err == nil {
		return
	}
	o.err = err
	o.ErrorCode = model.CodeOf(err)
	o.Error = err.Error()
}

// BatchProcessor runs many guidance requests with bounded concurrency
type BatchProcessor struct {
	guider      Guider
	concurrency int
	logger      logging.Logger
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(guider Guider, concurrency int, logger logging.Logger) *BatchProcessor {
	return &BatchProcessor{
		guider:      guider,
		concurrency: concurrency,
		logger:      logging.OrNop(logger).With(map[string]interface{}{"component": "batch"}),
	}
}

// Process runs every item and returns outcomes ordered by line
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*GuidanceOutcome {
	outcomes := make([]*GuidanceOutcome, 0, len(items))
	if len(items) == 0 {
		return outcomes
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	pending := make(map[int]Item)
	for _, it := range items {
		if it.Err != nil {
			o := &GuidanceOutcome{Line: it.Line, ID: it.Envelope.ID}
			o.setError(it.Err)
			outcomes = append(outcomes, o)
			continue
		}
		if !pool.Submit(&GuidanceTask{Item: it, Guider: b.guider}) {
			o := &GuidanceOutcome{Line: it.Line, ID: it.Envelope.ID}
			o.setError(fmt.Errorf("batch cancelled: %w", context.Cause(ctx)))
			outcomes = append(outcomes, o)
			continue
		}
		pending[it.Line] = it
	}
	submitted := len(pending)

	for _, o := range pool.Drain() {
		g := o.(*GuidanceOutcome)
		delete(pending, g.Line)
		outcomes = append(outcomes, g)
	}
	// Tasks still queued when ctx was cancelled never ran
	for _, it := range pending {
		o := &GuidanceOutcome{Line: it.Line, ID: it.Envelope.ID}
		o.setError(fmt.Errorf("batch cancelled: %w", context.Cause(ctx)))
		outcomes = append(outcomes, o)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Line < outcomes[j].Line })

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
		}
	}
	b.logger.Info("Batch complete", map[string]interface{}{
		"items":     len(items),
		"submitted": submitted,
		"failed":    failed,
	})
	return outcomes
}

// ProcessFile reads a JSONL file and processes it
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*GuidanceOutcome, error) {
	items, err := ReadItemsFile(path)
	if err != nil {
		return nil, err
	}
	return b.Process(ctx, items), nil
}

// ReadItemsFile reads batch items from a JSONL file
func ReadItemsFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadItems(f)
}

// ReadItems decodes one request per line. Blank lines and # comments are
// skipped; undecodable lines become items carrying their error.
func ReadItems(r io.Reader) ([]Item, error) {
	var items []Item

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		env, err := request.Decode([]byte(text))
		items = append(items, Item{Line: line, Envelope: env, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan batch file: %w", err)
	}
	return items, nil
}

// WriteOutcomes encodes outcomes as JSONL
func WriteOutcomes(w io.Writer, outcomes []*GuidanceOutcome) error {
	enc := json.NewEncoder(w)
	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("write outcome line %d: %w", o.Line, err)
		}
	}
	return nil
}
