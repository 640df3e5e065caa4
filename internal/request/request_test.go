package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/SeelanGov/thandi/internal/model"
)

func TestDecode_Valid(t *testing.T) {
	env, err := Decode([]byte(`{
		"id": "r-1",
		"questionText": "I hate math but love biology",
		"profile": {"grade": 11, "likedSubjects": ["Life Sciences"], "financialNeed": "high", "marks": {"english": 72}}
	}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.ID != "r-1" {
		t.Errorf("Expected id r-1, got %q", env.ID)
	}
	if env.Text != "I hate math but love biology" {
		t.Errorf("Unexpected text %q", env.Text)
	}
	if env.Profile == nil || env.Profile.Grade != 11 || env.Profile.FinancialNeed != model.FinancialNeedHigh {
		t.Errorf("Unexpected profile %+v", env.Profile)
	}
	if env.Profile.Marks["english"] != 72 {
		t.Errorf("Expected english mark 72, got %v", env.Profile.Marks)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "empty request body"},
		{"not json", `{"questionText":`, "malformed JSON"},
		{"missing question", `{"profile": {}}`, "questionText"},
		{"unknown field", `{"questionText": "hello there", "extra": 1}`, "extra"},
		{"grade out of range", `{"questionText": "hello there", "profile": {"grade": 4}}`, "grade"},
		{"unknown need tier", `{"questionText": "hello there", "profile": {"financialNeed": "some"}}`, "financialNeed"},
		{"mark above 100", `{"questionText": "hello there", "profile": {"marks": {"math": 140}}}`, "math"},
		{"whitespace question", `{"questionText": "   "}`, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			if !errors.Is(err, model.ErrInvalidQuery) {
				t.Fatalf("Expected INVALID_QUERY, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %q", tt.want, err.Error())
			}
		})
	}
}
