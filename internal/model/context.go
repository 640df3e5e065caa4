package model

// AssembledContext is the bounded text handed to generation
type AssembledContext struct {
	Text        string   `json:"text"`
	ChunkCount  int      `json:"chunk_count"`
	TokenCount  int      `json:"token_count"`
	TokenBudget int      `json:"token_budget"`
	Frameworks  []string `json:"frameworks,omitempty"` // Canonical framework names found in included chunks
	Included    []string `json:"included,omitempty"`   // Chunk ids in order
}
