package domain

import "github.com/spontime/geocore/internal/domain/geo"

// Cluster is one density-based spatial cluster. Each clustering run replaces
// the whole cluster set for its scope; noise points are never materialized.
type Cluster struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Scope        Scope     `json:"scope"`
	Centroid     geo.Point `json:"centroid"`
	RadiusMeters float64   `json:"radius_m"`
	MemberCount  int       `json:"member_count"`
	CreatedAt    int64     `json:"created_at"` // unix millis
}
