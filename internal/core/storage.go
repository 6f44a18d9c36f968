package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"sharedlist/internal/blob"
	"sharedlist/internal/infra/persistence/blobstate"
	"sharedlist/internal/infra/persistence/memory"
	"sharedlist/internal/infra/persistence/postgres"
	"sharedlist/internal/infra/persistence/sqlite"
	"sharedlist/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageFile     StorageDriver = "file"     // JSON file on local disk
	StorageS3       StorageDriver = "s3"       // JSON object in an S3 / MinIO bucket
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// DefaultFilePath is where the file driver keeps the list when unconfigured.
const DefaultFilePath = "./data/list.json"

// StorageConfig selects and parameterizes a backend.
type StorageConfig struct {
	Driver      StorageDriver
	FilePath    string
	SQLitePath  string
	PostgresDSN string
	S3          blob.S3Config
	S3Key       string
}

// OpenPersistentStore opens the backend described by cfg. An empty driver
// selects the file backend. A backend that cannot be opened or whose stored
// state cannot be decoded is reported as a domain.StorageError.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageFile
	}
	var (
		store domain.PersistentStore
		err   error
	)
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageFile:
		store, err = openFileStore(ctx, cfg.FilePath, engine)
	case StorageS3:
		store, err = openS3Store(ctx, cfg, engine)
	case StorageSQLite:
		store, err = sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		store, err = postgres.NewStore(ctx, cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	if err != nil {
		return nil, domain.StorageError{Op: "open " + string(driver), Err: err}
	}
	return store, nil
}

func openFileStore(ctx context.Context, path string, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	if path == "" {
		path = DefaultFilePath
	}
	blobs, err := blob.NewFilesystem(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return blobstate.NewStore(ctx, blobs, filepath.Base(path), engine)
}

func openS3Store(ctx context.Context, cfg StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	blobs, err := blob.NewS3(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	return blobstate.NewStore(ctx, blobs, cfg.S3Key, engine)
}

// CloseStore releases resources held by store, if it holds any.
func CloseStore(store domain.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
