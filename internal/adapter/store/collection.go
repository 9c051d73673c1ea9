package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"sprintrag/internal/domain"
)

type boltCollection struct {
	db     *bbolt.DB
	info   domain.CollectionInfo
	metric Metric
}

type storedRecord struct {
	Seq      uint64                `json:"seq"`
	Vector   []float32             `json:"v"`
	Text     string                `json:"t"`
	Metadata domain.ResultMetadata `json:"m"`
}

func (c *boltCollection) Info() domain.CollectionInfo {
	return c.info
}

// records returns the records bucket if this handle still refers to the
// stored collection. A collection dropped and rebuilt since the handle was
// acquired counts as missing.
func (c *boltCollection) records(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := collectionBucket(tx, c.info.Name)
	if b == nil {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, c.info.Name)
	}
	var current domain.CollectionInfo
	if err := json.Unmarshal(b.Get(keyInfo), &current); err != nil {
		return nil, fmt.Errorf("corrupt collection info: %w", err)
	}
	if !current.BuiltAt.Equal(c.info.BuiltAt) {
		return nil, fmt.Errorf("%w: collection %s was rebuilt", domain.ErrNotFound, c.info.Name)
	}
	return b.Bucket(bucketRecords), nil
}

func (c *boltCollection) Upsert(ctx context.Context, records []domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != c.info.Dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", r.ID, c.info.Dimension, len(r.Vector))
		}
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b, err := c.records(tx)
		if err != nil {
			return err
		}

		for _, r := range records {
			key := []byte(r.ID)

			// An overwrite keeps the record's original insertion position.
			var seq uint64
			if existing := b.Get(key); existing != nil {
				var prev storedRecord
				if err := json.Unmarshal(existing, &prev); err == nil {
					seq = prev.Seq
				}
			}
			if seq == 0 {
				if seq, err = b.NextSequence(); err != nil {
					return err
				}
			}

			data, err := json.Marshal(storedRecord{
				Seq:      seq,
				Vector:   r.Vector,
				Text:     r.Text,
				Metadata: r.Metadata,
			})
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *boltCollection) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != c.info.Dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", c.info.Dimension, len(vector))
	}
	if k <= 0 {
		return nil, nil
	}

	var candidates []Candidate
	err := c.db.View(func(tx *bbolt.Tx) error {
		b, err := c.records(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt record %s: %w", bytes.Clone(k), err)
			}
			candidates = append(candidates, Candidate{
				Seq: stored.Seq,
				Result: domain.SearchResult{
					Text:     stored.Text,
					Metadata: stored.Metadata,
					Distance: c.metric.Distance(vector, stored.Vector),
				},
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return TopK(candidates, k), nil
}

func (c *boltCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		b, err := c.records(tx)
		if err != nil {
			return err
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
