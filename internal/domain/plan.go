package domain

import (
	"time"

	"github.com/spontime/geocore/internal/domain/geo"
)

// Plan is a read-only snapshot of a time-bounded, geolocated plan record.
// The location resolves through the plan's place or venue reference; plans
// without a resolvable location carry HasLocation=false.
type Plan struct {
	ID          string    `json:"id"`
	Location    geo.Point `json:"location"`
	HasLocation bool      `json:"has_location"`
	Tags        []string  `json:"tags"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsActive    bool      `json:"is_active"`
	Capacity    int       `json:"capacity"`
}
