// Package cluster persists per-scope cluster sets as single JSON documents.
package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spontime/geocore/internal/db"
	"github.com/spontime/geocore/internal/domain"
)

// store is the consumer interface for cluster documents (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/clustering.ClusterStore.
type Repo struct {
	store  store
	prefix string
}

// New creates a cluster repository. An empty prefix falls back to the
// default keyspace prefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// ReplaceScope atomically replaces the scope's whole cluster set. An empty
// set is a valid replacement: readers then see zero clusters, not the
// previous run's output.
func (r *Repo) ReplaceScope(ctx context.Context, scope domain.Scope, clusters []domain.Cluster) error {
	if clusters == nil {
		clusters = []domain.Cluster{}
	}
	doc := clusterSet{
		Scope:     scope,
		UpdatedAt: time.Now().UnixMilli(),
		Clusters:  clusters,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cluster set: %w", err)
	}

	key := r.key(scope)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// ListByScope returns the scope's current cluster set. A scope never
// clustered yet yields an empty set, not an error.
func (r *Repo) ListByScope(ctx context.Context, scope domain.Scope) ([]domain.Cluster, error) {
	key := r.key(scope)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var doc clusterSet
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return doc.Clusters, nil
}

func (r *Repo) key(scope domain.Scope) string {
	return fmt.Sprintf("%sclusters:%s", r.prefix, scope)
}
