package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
)

type fakeGuider struct {
	calls atomic.Int32
}

func (g *fakeGuider) Guide(ctx context.Context, q model.Query) (*model.GenerationResult, error) {
	g.calls.Add(1)
	if strings.Contains(q.Text, "exhaust") {
		return &model.GenerationResult{}, model.NewError(model.CodeProvidersExhausted, "no valid answer after 4 attempts", nil)
	}
	return &model.GenerationResult{Success: true, Answer: "answer to " + q.Text}, nil
}

const batchFile = `# guidance requests
{"id": "a", "questionText": "What careers use biology?"}

{"id": "b", "questionText": "please exhaust the providers"}
{"id": "c", "questionText": ""}
not json
{"id": "d", "questionText": "I want to help people", "profile": {"grade": 10}}
`

func TestReadItems(t *testing.T) {
	items, err := ReadItems(strings.NewReader(batchFile))
	if err != nil {
		t.Fatalf("ReadItems: %v", err)
	}

	if len(items) != 5 {
		t.Fatalf("Expected 5 items, got %d", len(items))
	}
	wantLines := []int{2, 4, 5, 6, 7}
	for i, it := range items {
		if it.Line != wantLines[i] {
			t.Errorf("Item %d: expected line %d, got %d", i, wantLines[i], it.Line)
		}
	}
	if items[2].Err == nil || items[3].Err == nil {
		t.Error("Expected decode errors for the empty question and the non-JSON line")
	}
	if !errors.Is(items[3].Err, model.ErrInvalidQuery) {
		t.Errorf("Expected INVALID_QUERY, got %v", items[3].Err)
	}
	if items[4].Envelope.Profile == nil || items[4].Envelope.Profile.Grade != 10 {
		t.Errorf("Expected the profile decoded, got %+v", items[4].Envelope)
	}
}

func TestBatchProcessor_Process(t *testing.T) {
	items, err := ReadItems(strings.NewReader(batchFile))
	if err != nil {
		t.Fatalf("ReadItems: %v", err)
	}
	guider := &fakeGuider{}
	processor := NewBatchProcessor(guider, 3, logging.NewTestLogger(t))

	outcomes := processor.Process(context.Background(), items)

	if len(outcomes) != 5 {
		t.Fatalf("Expected 5 outcomes, got %d", len(outcomes))
	}
	if guider.calls.Load() != 3 {
		t.Errorf("Expected only decodable items to reach the pipeline, got %d calls", guider.calls.Load())
	}
	for i := 1; i < len(outcomes); i++ {
		if outcomes[i-1].Line >= outcomes[i].Line {
			t.Fatalf("Expected outcomes ordered by line, got %d before %d", outcomes[i-1].Line, outcomes[i].Line)
		}
	}

	if outcomes[0].ID != "a" || outcomes[0].Err() != nil || !outcomes[0].Result.Success {
		t.Errorf("Unexpected outcome for a: %+v", outcomes[0])
	}
	if outcomes[1].ErrorCode != model.CodeProvidersExhausted {
		t.Errorf("Expected PROVIDERS_EXHAUSTED for b, got %q", outcomes[1].ErrorCode)
	}
	if outcomes[2].ErrorCode != model.CodeInvalidQuery || outcomes[3].ErrorCode != model.CodeInvalidQuery {
		t.Errorf("Expected INVALID_QUERY for undecodable lines, got %q and %q", outcomes[2].ErrorCode, outcomes[3].ErrorCode)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&fakeGuider{}, 2, nil)

	if outcomes := processor.Process(context.Background(), nil); len(outcomes) != 0 {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	items, err := ReadItems(strings.NewReader(batchFile))
	if err != nil {
		t.Fatalf("ReadItems: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := NewBatchProcessor(&fakeGuider{}, 2, nil).Process(ctx, items)

	if len(outcomes) != len(items) {
		t.Fatalf("Expected an outcome for every item, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Err() == nil {
			t.Errorf("Expected line %d to fail after cancellation", o.Line)
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	if err := os.WriteFile(path, []byte(batchFile), 0o600); err != nil {
		t.Fatal(err)
	}

	outcomes, err := NewBatchProcessor(&fakeGuider{}, 2, nil).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(outcomes) != 5 {
		t.Errorf("Expected 5 outcomes, got %d", len(outcomes))
	}

	if _, err := NewBatchProcessor(&fakeGuider{}, 2, nil).ProcessFile(context.Background(), path+".missing"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestWriteOutcomes(t *testing.T) {
	var buf bytes.Buffer
	outcomes := []*GuidanceOutcome{
		{Line: 1, ID: "a", Result: &model.GenerationResult{Success: true, Answer: "hi"}},
		{Line: 2, ID: "b", ErrorCode: model.CodeInvalidQuery, Error: "INVALID_QUERY: question text is empty"},
	}

	if err := WriteOutcomes(&buf, outcomes); err != nil {
		t.Fatalf("WriteOutcomes: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("Line 2 is not JSON: %v", err)
	}
	if decoded["errorCode"] != "INVALID_QUERY" {
		t.Errorf("Expected errorCode INVALID_QUERY, got %v", decoded["errorCode"])
	}
}
