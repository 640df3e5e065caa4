package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/SeelanGov/thandi/internal/model"
)

// LoadChunks reads chunks with embeddings from a JSON array or JSON-lines file
func LoadChunks(path string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return ParseChunks(data)
}

// ParseChunks decodes a JSON array or JSON-lines payload
func ParseChunks(data []byte) ([]model.Chunk, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var chunks []model.Chunk
		if err := json.Unmarshal(trimmed, &chunks); err != nil {
			return nil, fmt.Errorf("parse chunks: %w", err)
		}
		return chunks, validateChunks(chunks)
	}

	var chunks []model.Chunk
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c model.Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse chunks line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	return chunks, validateChunks(chunks)
}

func validateChunks(chunks []model.Chunk) error {
	seen := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate chunk id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
