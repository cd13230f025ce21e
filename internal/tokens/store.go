package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"memorybook-backend/internal/models"
)

// Store is the durable token collection. The contract is deliberately
// coarse: the whole collection is read and rewritten per mutation, and
// the Manager serializes every mutation behind one mutex, so a store
// implementation never sees concurrent writers.
type Store interface {
	Load() ([]models.TokenRecord, error)
	Replace(records []models.TokenRecord) error
}

// FileStore keeps the collection in a single JSON document, the shape
// the original deployment used: {"tokens": [...]}.
type FileStore struct {
	path string
}

type tokensFile struct {
	Tokens []models.TokenRecord `json:"tokens"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]models.TokenRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.TokenRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var doc tokensFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	return doc.Tokens, nil
}

func (s *FileStore) Replace(records []models.TokenRecord) error {
	data, err := json.MarshalIndent(tokensFile{Tokens: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}

	// Write-then-rename so a crash mid-write cannot truncate the
	// collection.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
