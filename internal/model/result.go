package model

import "time"

// GenerationResult is what the caller receives
type GenerationResult struct {
	Success    bool             `json:"success"`
	Answer     string           `json:"answerText"`
	Validation ValidationReport `json:"validationReport"`
	Meta       GenerationMeta   `json:"metadata"`
}

// GenerationMeta describes how the answer was produced
type GenerationMeta struct {
	RequestID       string        `json:"requestId"`
	Provider        string        `json:"provider,omitempty"`
	Model           string        `json:"model,omitempty"`
	Attempts        int           `json:"attempts"`
	Retries         int           `json:"retries"`
	UsedFallback    bool          `json:"usedFallback"`
	SafetyTriggered bool          `json:"safetyTriggered"`
	SafetyCategory  string        `json:"safetyCategory,omitempty"`
	TokensUsed      int           `json:"tokensUsed,omitempty"`
	ChunksUsed      int           `json:"chunksUsed"`
	Frameworks      []string      `json:"frameworks,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
}

// ValidationReport lists the outcome of each response check
type ValidationReport struct {
	Passed  bool          `json:"passed"`
	Skipped bool          `json:"skipped,omitempty"` // True for safety responses, which are never validated
	Checks  []CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one named check
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Failed returns the checks that did not pass
func (r ValidationReport) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// SafetyTrigger is a statically configured high-stakes pattern group
type SafetyTrigger struct {
	Category string   `json:"category" yaml:"category"`
	Patterns []string `json:"patterns" yaml:"patterns"` // Case-insensitive regular expressions
	Response string   `json:"response" yaml:"response"` // Fixed safe text returned instead of generation
}
