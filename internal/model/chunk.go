package model

// Provenance records which retrieval pass produced a chunk
type Provenance string

const (
	ProvenanceExplicit       Provenance = "explicit"
	ProvenanceIntentPrimary  Provenance = "intent-primary"
	ProvenanceIntentConflict Provenance = "intent-conflict"
	ProvenanceSemantic       Provenance = "semantic"
)

// Rank orders provenances from strongest to weakest
func (p Provenance) Rank() int {
	switch p {
	case ProvenanceExplicit:
		return 0
	case ProvenanceIntentPrimary:
		return 1
	case ProvenanceIntentConflict:
		return 2
	case ProvenanceSemantic:
		return 3
	}
	return 4
}

// Chunk is a read-only knowledge-base passage
type Chunk struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Source     string          `json:"source,omitempty"`   // Origin document or tag
	Category   string          `json:"category,omitempty"` // Knowledge-base category, e.g. "career_profile"
	Attributes ChunkAttributes `json:"attributes"`
	Embedding  []float32       `json:"embedding,omitempty"` // Only populated by stores that load fixtures
}

// ChunkAttributes is the typed attribute record attached to a chunk
type ChunkAttributes struct {
	CareerID     string `json:"career_id,omitempty"`
	CareerName   string `json:"career_name,omitempty"`
	SalaryEntry  string `json:"salary_entry,omitempty"`  // e.g. "R180 000 - R250 000"
	SalaryMid    string `json:"salary_mid,omitempty"`
	SalarySenior string `json:"salary_senior,omitempty"`
	Priority     bool   `json:"priority,omitempty"` // Curated as a high-priority entry
}

// Attribute names accepted by FetchByAttribute
const (
	AttrCareerID = "career_id"
	AttrCategory = "category"
	AttrSource   = "source"
)

// HasCareer reports whether the chunk is tied to a career
func (c Chunk) HasCareer() bool {
	return c.Attributes.CareerID != ""
}

// ScoredChunk is a chunk annotated by retrieval and re-ranking
type ScoredChunk struct {
	Chunk          Chunk        `json:"chunk"`
	Provenance     Provenance   `json:"provenance"`
	SourceCategory Category     `json:"source_category,omitempty"` // Intent category that requested it
	Similarity     float64      `json:"similarity"`
	Score          float64      `json:"score"` // [0,1], lower ranks first
	Breakdown      []Adjustment `json:"breakdown,omitempty"`
}

// Adjustment is one additive, explainable score component
type Adjustment struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Rule  string  `json:"rule,omitempty"`
}
