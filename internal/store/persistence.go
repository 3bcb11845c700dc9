package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Persistence writes collection snapshots as JSON files under DataDir.
type Persistence struct {
	DataDir string
	mu      sync.Mutex
}

// NewPersistence ensures dir exists and returns a handler for it.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Persistence{DataDir: dir}, nil
}

func (p *Persistence) path(collection string) string {
	return filepath.Join(p.DataDir, collection+".json")
}

// SaveCollection writes docs to <collection>.json atomically: the snapshot
// goes to a temp file first and is renamed over the old one.
func (p *Persistence) SaveCollection(collection string, docs []Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	bytes, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	filePath := p.path(collection)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write %s snapshot: %w", collection, err)
	}
	return os.Rename(tempPath, filePath)
}

// LoadCollection reads a snapshot. A missing file yields no documents. A file
// that does not parse is an error: starting empty would overwrite it on the
// next write.
func (p *Persistence) LoadCollection(collection string) ([]Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, err := os.ReadFile(p.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var docs []Document
	if err := json.Unmarshal(content, &docs); err != nil {
		return nil, fmt.Errorf("parse %s snapshot %s: %w", collection, p.path(collection), err)
	}
	return docs, nil
}
