// Package blobstate keeps the list as a single JSON object in a blob store:
// a local file through the filesystem driver or an S3 object. The id counter
// travels as object metadata in the same write.
package blobstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"sharedlist/internal/blob"
	"sharedlist/internal/infra/persistence/memory"
	"sharedlist/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	// DefaultKey is the object key used when none is configured.
	DefaultKey = "list.json"
	// MetaNextID is the metadata entry carrying the id counter.
	MetaNextID = "next-id"

	contentType = "application/json"
)

// Store persists the whole list as one pretty-printed JSON array.
type Store struct {
	*memory.Store
	blobs blob.Store
	key   string
}

// NewStore loads the list from blobs and returns a store that rewrites the
// object on every commit. A missing object yields an empty list.
func NewStore(ctx context.Context, blobs blob.Store, key string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blobstate: blob store required")
	}
	if key == "" {
		key = DefaultKey
	}
	snapshot, err := load(ctx, blobs, key)
	if err != nil {
		return nil, err
	}
	s := &Store{blobs: blobs, key: key}
	opts = append(opts, memory.WithSnapshot(snapshot), memory.WithCommitHook(s.persist))
	s.Store = memory.NewStore(engine, opts...)
	return s, nil
}

// Key returns the object key holding the list.
func (s *Store) Key() string { return s.key }

// Driver reports the underlying blob driver.
func (s *Store) Driver() blob.Driver { return s.blobs.Driver() }

func load(ctx context.Context, blobs blob.Store, key string) (memory.Snapshot, error) {
	info, rc, err := blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return memory.Snapshot{}, nil
	}
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	var snapshot memory.Snapshot
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snapshot.Items); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if v, ok := info.Metadata[MetaNextID]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode %s metadata: %w", key, err)
		}
		snapshot.NextID = n
	}
	return snapshot, nil
}

// persist is the commit hook. It runs under the memory store's writer lock.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	items := snapshot.Items
	if items == nil {
		items = domain.List{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{MetaNextID: strconv.FormatInt(snapshot.NextID, 10)},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
