package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

const dbFileName = "index.db"

var (
	bucketCollections = []byte("collections")
	bucketRecords     = []byte("records")
	keyInfo           = []byte("info")
)

// BoltIndex is a persistent VectorIndex. Each collection is a nested bucket
// holding its CollectionInfo and a records bucket keyed by chunk ID.
// Search is brute force, which is adequate for a corpus of a few reports.
type BoltIndex struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// DBPath returns the database file inside the store directory.
func DBPath(dir string) string {
	return filepath.Join(dir, dbFileName)
}

// Exists reports whether a store has been created in dir.
func Exists(dir string) bool {
	_, err := os.Stat(DBPath(dir))
	return err == nil
}

// Open opens or creates the store in dir.
func Open(dir string, logger *zap.Logger) (*BoltIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return open(DBPath(dir), &bbolt.Options{Timeout: time.Second}, logger)
}

// OpenReadOnly opens an existing store for serving. A missing store is
// reported as domain.ErrNotFound.
func OpenReadOnly(dir string, logger *zap.Logger) (*BoltIndex, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w: vector store %s", domain.ErrNotFound, dir)
	}
	return open(DBPath(dir), &bbolt.Options{Timeout: time.Second, ReadOnly: true}, logger)
}

func open(path string, opts *bbolt.Options, logger *zap.Logger) (*BoltIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bbolt.Open(path, 0600, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketCollections)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create collections bucket: %w", err)
		}
	}

	return &BoltIndex{db: db, logger: logger}, nil
}

func (s *BoltIndex) DropCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).DeleteBucket([]byte(name))
	})
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	s.logger.Debug("collection dropped", zap.String("collection", name))
	return nil
}

func (s *BoltIndex) CreateCollection(ctx context.Context, info domain.CollectionInfo) (port.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if info.Dimension <= 0 {
		return nil, fmt.Errorf("%w: collection dimension must be positive", domain.ErrInvalidConfig)
	}
	metric, err := ParseMetric(info.Metric)
	if err != nil {
		return nil, err
	}
	info.Metric = string(metric)
	info.SchemaVersion = CurrentSchemaVersion
	if info.BuiltAt.IsZero() {
		info.BuiltAt = time.Now().UTC()
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketCollections).CreateBucket([]byte(info.Name))
		if err != nil {
			return err
		}
		if _, err := b.CreateBucket(bucketRecords); err != nil {
			return err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return b.Put(keyInfo, data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", info.Name, err)
	}

	s.logger.Debug("collection created", zap.String("collection", info.Name), zap.Int("dimension", info.Dimension))
	return &boltCollection{db: s.db, info: info, metric: metric}, nil
}

func (s *BoltIndex) GetCollection(ctx context.Context, name string) (port.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var info domain.CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := collectionBucket(tx, name)
		if b == nil {
			return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
		}
		return json.Unmarshal(b.Get(keyInfo), &info)
	})
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(info); err != nil {
		return nil, err
	}
	metric, err := ParseMetric(info.Metric)
	if err != nil {
		return nil, err
	}
	return &boltCollection{db: s.db, info: info, metric: metric}, nil
}

func (s *BoltIndex) ListCollections(ctx context.Context) ([]domain.CollectionInfo, error) {
	var infos []domain.CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(k []byte) error {
			var info domain.CollectionInfo
			if err := json.Unmarshal(root.Bucket(k).Get(keyInfo), &info); err != nil {
				return fmt.Errorf("corrupt collection info for %s: %w", k, err)
			}
			infos = append(infos, info)
			return nil
		})
	})
	return infos, err
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}

func collectionBucket(tx *bbolt.Tx, name string) *bbolt.Bucket {
	root := tx.Bucket(bucketCollections)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(name))
}
