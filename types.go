package geocore

import (
	"sort"
	"time"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/usecase/search"
)

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Cluster is one density-based spatial cluster.
type Cluster struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Scope        string    `json:"scope"`
	Centroid     Point     `json:"centroid"`
	RadiusMeters float64   `json:"radius_m"`
	MemberCount  int       `json:"member_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecoItem is one scored recommendation.
type RecoItem struct {
	PlanID         string  `json:"plan_id"`
	Score          float64 `json:"score"`
	DistanceMeters int     `json:"distance_m"`
	SharedTags     int     `json:"shared_tags"`
}

// Feed is a user's latest recommendation snapshot with items sorted by
// score descending.
type Feed struct {
	SnapshotID  string     `json:"snapshot_id"`
	UserID      string     `json:"user_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	AlgoVersion string     `json:"algo_version"`
	Items       []RecoItem `json:"items"`
}

// Plan is a plan record as seen by search results.
type Plan struct {
	ID       string    `json:"id"`
	Location *Point    `json:"location,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity int       `json:"capacity"`
}

// NearbyHit is one ranked proximity search result.
type NearbyHit struct {
	Plan           Plan    `json:"plan"`
	DistanceMeters float64 `json:"distance_m"`
}

// NearbyQuery describes one proximity search. Zero RadiusKm and WindowHours
// fall back to the configured defaults.
type NearbyQuery struct {
	Lat         float64
	Lon         float64
	RadiusKm    float64
	WindowHours float64
	Tags        []string
}

// ClusteringSummary reports a full clustering batch.
type ClusteringSummary struct {
	Scopes   int
	Clusters int
	Skipped  int
	Failures int
}

// RecoSummary reports a full recommendation batch.
type RecoSummary struct {
	Users     int
	Generated int
	Skipped   int
	Failures  int
}

func clusterFromDomain(c domain.Cluster) Cluster {
	return Cluster{
		ID:           c.ID,
		Label:        c.Label,
		Scope:        string(c.Scope),
		Centroid:     Point{Lat: c.Centroid.Lat, Lon: c.Centroid.Lon},
		RadiusMeters: c.RadiusMeters,
		MemberCount:  c.MemberCount,
		CreatedAt:    time.UnixMilli(c.CreatedAt).UTC(),
	}
}

func feedFromDomain(snap domain.RecoSnapshot) Feed {
	items := make([]RecoItem, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = RecoItem{
			PlanID:         it.PlanID,
			Score:          it.Score,
			DistanceMeters: it.DistanceMeters,
			SharedTags:     it.SharedTags,
		}
	}
	return Feed{
		SnapshotID:  snap.ID,
		UserID:      snap.UserID,
		GeneratedAt: time.UnixMilli(snap.GeneratedAt).UTC(),
		AlgoVersion: snap.AlgoVersion,
		Items:       items,
	}
}

// sortFeedItems orders items by score descending, preserving scoring order
// among equals.
func sortFeedItems(items []RecoItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

func hitFromDomain(h search.Hit) NearbyHit {
	p := Plan{
		ID:       h.Plan.ID,
		Tags:     h.Plan.Tags,
		StartsAt: h.Plan.StartsAt,
		EndsAt:   h.Plan.EndsAt,
		Capacity: h.Plan.Capacity,
	}
	if h.Plan.HasLocation {
		p.Location = &Point{Lat: h.Plan.Location.Lat, Lon: h.Plan.Location.Lon}
	}
	return NearbyHit{Plan: p, DistanceMeters: h.DistanceMeters}
}
