package store

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// MemStore is a thread-safe in-process Store.
type MemStore struct {
	profiles     *memCollection
	certificates *memCollection
}

// NewMemStore creates an empty in-memory store. Profile iccids are unique.
func NewMemStore() *MemStore {
	return &MemStore{
		profiles:     newMemCollection(ProfilesCollection, ProfileUniqueFields, nil),
		certificates: newMemCollection(CertificatesCollection, nil, nil),
	}
}

// NewFileStore creates a memory store that snapshots every collection to
// dataDir after each write and reloads existing snapshots on start.
func NewFileStore(dataDir string) (*MemStore, error) {
	p, err := NewPersistence(dataDir)
	if err != nil {
		return nil, err
	}

	profiles := newMemCollection(ProfilesCollection, ProfileUniqueFields, p)
	certificates := newMemCollection(CertificatesCollection, nil, p)

	for _, c := range []*memCollection{profiles, certificates} {
		docs, err := p.LoadCollection(c.name)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c.name, err)
		}
		for _, doc := range docs {
			id, _ := doc["id"].(string)
			if id == "" {
				continue
			}
			c.docs[id] = doc
			c.order = append(c.order, id)
		}
	}

	return &MemStore{profiles: profiles, certificates: certificates}, nil
}

func (m *MemStore) Profiles() Collection     { return m.profiles }
func (m *MemStore) Certificates() Collection { return m.certificates }

// Ping always succeeds for the in-process store.
func (m *MemStore) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op; file snapshots are written synchronously.
func (m *MemStore) Close() error { return nil }

type memCollection struct {
	name      string
	unique    []string
	persister *Persistence

	mu    sync.RWMutex
	docs  map[string]Document
	order []string
}

func newMemCollection(name string, unique []string, p *Persistence) *memCollection {
	return &memCollection{
		name:      name,
		unique:    unique,
		persister: p,
		docs:      make(map[string]Document),
	}
}

func (c *memCollection) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (c *memCollection) List(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, cloneDocument(c.docs[id]))
	}
	return list, nil
}

func (c *memCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		if matches(c.docs[id], filter) {
			return cloneDocument(c.docs[id]), nil
		}
	}
	return nil, ErrNotFound
}

func (c *memCollection) Insert(ctx context.Context, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%s id %q: %w", c.name, id, ErrConflict)
	}
	doc = cloneDocument(doc)
	doc["id"] = id
	if err := c.checkUnique(id, doc); err != nil {
		return err
	}

	c.docs[id] = doc
	c.order = append(c.order, id)
	if err := c.persistLocked(); err != nil {
		delete(c.docs, id)
		c.order = c.order[:len(c.order)-1]
		return err
	}
	return nil
}

func (c *memCollection) Update(ctx context.Context, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}

	merged := cloneDocument(existing)
	for k, v := range fields {
		merged[k] = cloneValue(v)
	}
	merged["id"] = id
	if err := c.checkUnique(id, merged); err != nil {
		return err
	}

	c.docs[id] = merged
	if err := c.persistLocked(); err != nil {
		c.docs[id] = existing
		return err
	}
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	pos := slices.Index(c.order, id)
	delete(c.docs, id)
	c.order = slices.Delete(c.order, pos, pos+1)
	if err := c.persistLocked(); err != nil {
		c.docs[id] = doc
		c.order = slices.Insert(c.order, pos, id)
		return err
	}
	return nil
}

func (c *memCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, doc := range c.docs {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

// checkUnique must be called with c.mu held.
func (c *memCollection) checkUnique(id string, doc Document) error {
	for _, field := range c.unique {
		val, ok := doc[field]
		if !ok || val == nil {
			continue
		}
		for oid, other := range c.docs {
			if oid == id {
				continue
			}
			if reflect.DeepEqual(other[field], val) {
				return fmt.Errorf("%s.%s %v: %w", c.name, field, val, ErrConflict)
			}
		}
	}
	return nil
}

// persistLocked writes the collection snapshot. Must be called with c.mu held
// so snapshots land on disk in mutation order. Callers undo their change when
// it fails, so memory never runs ahead of disk.
func (c *memCollection) persistLocked() error {
	if c.persister == nil {
		return nil
	}
	snapshot := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		snapshot = append(snapshot, c.docs[id])
	}
	return c.persister.SaveCollection(c.name, snapshot)
}

func matches(doc Document, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
