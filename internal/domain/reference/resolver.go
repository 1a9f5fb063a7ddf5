// Package reference maps human-readable dataset keys to store-generated IDs
// for the lifetime of a single seeding run.
package reference

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/menuseed/internal/domain"
)

// Resolver holds one mapping table per kind. Safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	tables map[domain.Kind]map[string]string
}

// New creates an empty resolver with a table for every known kind.
func New() *Resolver {
	return &Resolver{
		tables: map[domain.Kind]map[string]string{
			domain.KindCategory:      {},
			domain.KindCustomization: {},
		},
	}
}

// Record maps key to id under kind. A later Record for the same key wins.
func (r *Resolver) Record(kind domain.Kind, key, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("record %q: unknown reference kind %q", key, kind)
	}
	r.mu.Lock()
	r.tables[kind][key] = id
	r.mu.Unlock()
	return nil
}

// Resolve returns the id recorded for key, or *domain.UnresolvedReferenceError.
func (r *Resolver) Resolve(kind domain.Kind, key string) (string, error) {
	r.mu.RLock()
	id, ok := r.tables[kind][key]
	r.mu.RUnlock()
	if !ok {
		return "", &domain.UnresolvedReferenceError{Kind: kind, Key: key}
	}
	return id, nil
}

// Len returns the number of keys recorded under kind.
func (r *Resolver) Len(kind domain.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables[kind])
}
