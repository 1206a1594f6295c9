package storage

import "fmt"

// Run store backends accepted by NewStore.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// NewStore opens the run store named by kind. An empty kind selects the
// in-memory store; dbPath is only used by the sqlite backend.
func NewStore(kind, dbPath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(dbPath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (want %s or %s)", kind, KindMemory, KindSQLite)
	}
}

// CloseIfSupported releases stores that hold resources, such as the sqlite
// connection pool.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
