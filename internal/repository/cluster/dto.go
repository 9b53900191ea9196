package cluster

import (
	"github.com/spontime/geocore/internal/domain"
)

// clusterSet is the single JSON document holding a scope's whole cluster
// set. Writing it with one SET is what makes replacement atomic for readers.
type clusterSet struct {
	Scope     domain.Scope     `json:"scope"`
	UpdatedAt int64            `json:"updated_at"` // unix millis
	Clusters  []domain.Cluster `json:"clusters"`
}
