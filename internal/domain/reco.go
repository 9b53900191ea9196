package domain

// RecoItem is one scored candidate inside a snapshot. Items are exclusively
// owned by their parent snapshot and kept in scoring order; display ranking
// (score descending) is the consumer's concern.
type RecoItem struct {
	PlanID         string  `json:"plan_id"`
	Score          float64 `json:"score"`
	DistanceMeters int     `json:"distance_m"`
	SharedTags     int     `json:"shared_tags"`
}

// RecoSnapshot is an immutable, timestamped recommendation result for one
// user. A later run appends a new snapshot; it never mutates an old one.
type RecoSnapshot struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	GeneratedAt int64      `json:"generated_at"` // unix millis
	AlgoVersion string     `json:"algo_version"`
	Items       []RecoItem `json:"items"`
}
