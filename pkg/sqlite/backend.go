// Package sqlite provides the public constructor for the SQLite snapshot
// backend while keeping implementation details internal.
package sqlite

import (
	"log"

	"github.com/mesh-intelligence/taskly/internal/sqlite"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// NewPersister creates a SQLite-backed Persister storing taskly.db in
// dataDir. The database is opened on first use.
//
// Example:
//
//	p, err := sqlite.NewPersister(".taskly-db", nil)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	snap, err := p.Load(ctx)
func NewPersister(dataDir string, logger *log.Logger) (types.Persister, error) {
	b, err := sqlite.NewBackend(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
