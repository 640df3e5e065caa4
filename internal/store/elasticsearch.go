package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/SeelanGov/thandi/internal/model"
)

// fetchSize bounds attribute fetches; one career never has more chunks than this
const fetchSize = 200

// ElasticsearchStore queries a dense_vector index with kNN search
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
}

// esDocument is the indexed _source shape
type esDocument struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Source       string `json:"source,omitempty"`
	Category     string `json:"category,omitempty"`
	CareerID     string `json:"career_id,omitempty"`
	CareerName   string `json:"career_name,omitempty"`
	SalaryEntry  string `json:"salary_entry,omitempty"`
	SalaryMid    string `json:"salary_mid,omitempty"`
	SalarySenior string `json:"salary_senior,omitempty"`
	Priority     bool   `json:"priority,omitempty"`
}

func (d esDocument) chunk() model.Chunk {
	return model.Chunk{
		ID:       d.ID,
		Text:     d.Text,
		Source:   d.Source,
		Category: d.Category,
		Attributes: model.ChunkAttributes{
			CareerID:     d.CareerID,
			CareerName:   d.CareerName,
			SalaryEntry:  d.SalaryEntry,
			SalaryMid:    d.SalaryMid,
			SalarySenior: d.SalarySenior,
			Priority:     d.Priority,
		},
	}
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Score  float64    `json:"_score"`
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// OpenElasticsearch creates a client from config
func OpenElasticsearch(cfg model.ElasticsearchConfig) (*ElasticsearchStore, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return NewElasticsearchStore(client, cfg.Index), nil
}

// NewElasticsearchStore wraps an existing client
func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	if index == "" {
		index = "knowledge_chunks"
	}
	return &ElasticsearchStore{client: client, index: index}
}

// SimilaritySearch runs a filtered kNN query. The index uses cosine
// similarity, whose document score is (1 + cosine) / 2.
func (s *ElasticsearchStore) SimilaritySearch(ctx context.Context, vec []float32, minSimilarity float64, limit int, filter *Filter) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	knn := map[string]interface{}{
		"field":          "embedding",
		"query_vector":   vec,
		"k":              limit,
		"num_candidates": limit * 10,
	}
	if terms := filterTerms(filter); len(terms) > 0 {
		knn["filter"] = map[string]interface{}{
			"bool": map[string]interface{}{"filter": terms},
		}
	}
	body := map[string]interface{}{
		"knn":     knn,
		"size":    limit,
		"_source": map[string]interface{}{"excludes": []string{"embedding"}},
	}

	resp, err := s.search(ctx, body)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, h := range resp.Hits.Hits {
		sim := 2*h.Score - 1
		if sim < minSimilarity {
			continue
		}
		c := h.Source.chunk()
		if c.ID == "" {
			c.ID = h.ID
		}
		hits = append(hits, Hit{Chunk: c, Similarity: sim})
	}
	return rankHits(hits, limit), nil
}

// FetchByAttribute runs a term query on a keyword field
func (s *ElasticsearchStore) FetchByAttribute(ctx context.Context, name, value string) ([]model.Chunk, error) {
	field, err := attributeColumn(name)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{field: value},
		},
		"size":    fetchSize,
		"_source": map[string]interface{}{"excludes": []string{"embedding"}},
	}

	resp, err := s.search(ctx, body)
	if err != nil {
		return nil, err
	}

	out := make([]model.Chunk, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		c := h.Source.chunk()
		if c.ID == "" {
			c.ID = h.ID
		}
		out = append(out, c)
	}
	return orderFetched(out), nil
}

func (s *ElasticsearchStore) search(ctx context.Context, body map[string]interface{}) (*esSearchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("search error: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}

	var out esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func filterTerms(f *Filter) []map[string]interface{} {
	if f == nil {
		return nil
	}
	var terms []map[string]interface{}
	if f.Category != "" {
		terms = append(terms, map[string]interface{}{"term": map[string]interface{}{"category": f.Category}})
	}
	if f.CareerID != "" {
		terms = append(terms, map[string]interface{}{"term": map[string]interface{}{"career_id": f.CareerID}})
	}
	return terms
}
