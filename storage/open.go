package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Supported backend names.
const (
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // "" → leveldb
	DataDir string // leveldb directory parent / sqlite file parent
	Redis   RedisOptions
}

// Open opens the backend named by opts.Backend.
func Open(opts Options) (DB, error) {
	switch opts.Backend {
	case "", BackendLevelDB:
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir data dir: %w", err)
		}
		return NewLevelDB(filepath.Join(opts.DataDir, "ledger"))
	case BackendSQLite:
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir data dir: %w", err)
		}
		return NewSQLiteDB(filepath.Join(opts.DataDir, "ledger.db"))
	case BackendRedis:
		return NewRedisDB(opts.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
