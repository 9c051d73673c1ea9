package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sprintrag/internal/adapter/store"
	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

// MemoryIndex is a non-persistent VectorIndex with the same semantics as the
// bolt store, including handle invalidation on drop.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string]*memCollection)}
}

type memRecord struct {
	seq    uint64
	record domain.Record
}

type memCollection struct {
	owner   *MemoryIndex
	info    domain.CollectionInfo
	metric  store.Metric
	records map[string]*memRecord
	nextSeq uint64
}

func (s *MemoryIndex) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *MemoryIndex) CreateCollection(_ context.Context, info domain.CollectionInfo) (port.Collection, error) {
	if info.Dimension <= 0 {
		return nil, fmt.Errorf("%w: collection dimension must be positive", domain.ErrInvalidConfig)
	}
	metric, err := store.ParseMetric(info.Metric)
	if err != nil {
		return nil, err
	}
	info.Metric = string(metric)
	info.SchemaVersion = store.CurrentSchemaVersion
	if info.BuiltAt.IsZero() {
		info.BuiltAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[info.Name]; ok {
		return nil, fmt.Errorf("collection %s already exists", info.Name)
	}
	c := &memCollection{
		owner:   s,
		info:    info,
		metric:  metric,
		records: make(map[string]*memRecord),
	}
	s.collections[info.Name] = c
	return c, nil
}

func (s *MemoryIndex) GetCollection(_ context.Context, name string) (port.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	return c, nil
}

func (s *MemoryIndex) ListCollections(_ context.Context) ([]domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]domain.CollectionInfo, 0, len(s.collections))
	for _, c := range s.collections {
		infos = append(infos, c.info)
	}
	return infos, nil
}

func (s *MemoryIndex) Close() error {
	return nil
}

// live fails once the collection has been dropped or replaced. Caller holds owner.mu.
func (c *memCollection) live() error {
	if c.owner.collections[c.info.Name] != c {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, c.info.Name)
	}
	return nil
}

func (c *memCollection) Info() domain.CollectionInfo {
	return c.info
}

func (c *memCollection) Upsert(_ context.Context, records []domain.Record) error {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	if err := c.live(); err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != c.info.Dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", r.ID, c.info.Dimension, len(r.Vector))
		}
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if existing, ok := c.records[r.ID]; ok {
			existing.record = r
			continue
		}
		c.nextSeq++
		c.records[r.ID] = &memRecord{seq: c.nextSeq, record: r}
	}
	return nil
}

func (c *memCollection) Query(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	c.owner.mu.RLock()
	defer c.owner.mu.RUnlock()
	if err := c.live(); err != nil {
		return nil, err
	}
	if len(vector) != c.info.Dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", c.info.Dimension, len(vector))
	}

	candidates := make([]store.Candidate, 0, len(c.records))
	for _, r := range c.records {
		candidates = append(candidates, store.Candidate{
			Seq: r.seq,
			Result: domain.SearchResult{
				Text:     r.record.Text,
				Metadata: r.record.Metadata,
				Distance: c.metric.Distance(vector, r.record.Vector),
			},
		})
	}
	return store.TopK(candidates, k), nil
}

func (c *memCollection) Count(_ context.Context) (int, error) {
	c.owner.mu.RLock()
	defer c.owner.mu.RUnlock()
	if err := c.live(); err != nil {
		return 0, err
	}
	return len(c.records), nil
}

// IDs returns the chunk IDs stored in the named collection.
func (s *MemoryIndex) IDs(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	return ids
}

// Vectors returns the stored vectors of the named collection keyed by chunk ID.
func (s *MemoryIndex) Vectors(name string) map[string][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	out := make(map[string][]float32, len(c.records))
	for id, r := range c.records {
		out[id] = r.record.Vector
	}
	return out
}
