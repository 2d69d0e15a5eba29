package repository

import (
	"context"
	"fmt"
)

// Store kinds accepted by Open.
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Open returns the store of the given kind. dsn is ignored for memory.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindSQLite:
		return NewSQLStore(ctx, DriverSQLite, dsn)
	case KindPostgres:
		return NewSQLStore(ctx, DriverPostgres, dsn)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, kind)
}
