// Package entity reads located entity records from the shared keyspace.
// The records are written by the persistence layer; this repository is
// read-only.
package entity

import (
	"context"
	"fmt"
	"sort"

	"github.com/spontime/geocore/internal/domain"
)

// store is the consumer interface for entity records (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/clustering.EntitySource.
type Repo struct {
	store  store
	prefix string
}

// New creates an entity repository. An empty prefix falls back to the
// default keyspace prefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// ListByScope returns every located entity of the scope. Keys are sorted
// before fetching so repeated runs over a static keyspace see the same
// input order.
func (r *Repo) ListByScope(ctx context.Context, scope domain.Scope) ([]domain.LocatedEntity, error) {
	pattern := fmt.Sprintf("%sentity:%s:*", r.prefix, scope)
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall %d entities: %w", len(keys), err)
	}

	entities := make([]domain.LocatedEntity, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 { // key expired between scan and fetch
			continue
		}
		e, err := parseEntity(scope, row)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}
