// Package store is the record store adapter for profiles and certificates.
//
// Records are schemaless JSON documents keyed by an opaque string id. The
// services encode their typed records into a Document before writing and
// decode them back after reading, so every backend only has to understand
// maps of JSON values.
//
// Three backends implement [Store]:
//
//   - memory: mutex-guarded maps, used by tests and local development
//   - file: the memory backend plus atomic JSON snapshots on disk
//   - postgres: one JSONB table per collection via pgx
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches an id or filter.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write would violate a unique field
	// or reuse an existing id.
	ErrConflict = errors.New("duplicate key violates unique constraint")
)

// Collection names.
const (
	ProfilesCollection     = "profiles"
	CertificatesCollection = "certificates"
)

// ProfileUniqueFields are the profile fields every backend keeps unique.
var ProfileUniqueFields = []string{"iccid"}

// Document is a single stored record.
type Document map[string]any

// Filter selects documents by field equality. An empty filter matches all.
type Filter map[string]any

// Collection is a set of documents keyed by id.
type Collection interface {
	// Get returns the document with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)
	// List returns every document in insertion order.
	List(ctx context.Context) ([]Document, error)
	// FindOne returns the first document matching filter or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	// Insert stores doc under id. Returns ErrConflict on a unique violation.
	Insert(ctx context.Context, id string, doc Document) error
	// Update merges fields into the stored document ($set semantics).
	Update(ctx context.Context, id string, fields Document) error
	// Delete removes the document or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Store bundles the two collections with the backend lifecycle.
type Store interface {
	Profiles() Collection
	Certificates() Collection
	Ping(ctx context.Context) error
	Close() error
}

// Encode converts a JSON-tagged value into a Document.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode populates v from a Document.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
