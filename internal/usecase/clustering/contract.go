package clustering

import (
	"context"

	"github.com/spontime/geocore/internal/domain"
)

// EntitySource reads located entity snapshots for a scope.
type EntitySource interface {
	ListByScope(ctx context.Context, scope domain.Scope) ([]domain.LocatedEntity, error)
}

// ClusterStore persists cluster sets with replace-whole semantics: the new
// set atomically supersedes every existing cluster for the scope.
type ClusterStore interface {
	ReplaceScope(ctx context.Context, scope domain.Scope, clusters []domain.Cluster) error
}
