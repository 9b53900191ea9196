// Package search answers synchronous proximity/time-window queries over
// active plans.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
	"github.com/spontime/geocore/internal/metrics"
)

// Defaults holds the query defaults applied when a caller omits a parameter.
type Defaults struct {
	RadiusKm    float64
	WindowHours float64
}

// DefaultDefaults returns the standard "what's happening near me now" window.
func DefaultDefaults() Defaults {
	return Defaults{RadiusKm: 2, WindowHours: 2}
}

// Query describes one proximity search.
type Query struct {
	Center      geo.Point
	RadiusKm    float64
	WindowHours float64
	Tags        []string
	Now         time.Time
}

// Hit is one ranked search result.
type Hit struct {
	Plan           domain.Plan `json:"plan"`
	DistanceMeters float64     `json:"distance_meters"`
}

// Service ranks active plans by proximity and temporal closeness.
type Service struct {
	plans    PlanSource
	defaults Defaults
	logger   *zap.Logger
}

// New creates a search service.
func New(plans PlanSource, defaults Defaults, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.RadiusKm <= 0 {
		defaults.RadiusKm = DefaultDefaults().RadiusKm
	}
	if defaults.WindowHours <= 0 {
		defaults.WindowHours = DefaultDefaults().WindowHours
	}
	return &Service{plans: plans, defaults: defaults, logger: logger}
}

// Search returns active plans inside the radius whose time range overlaps the
// forward window, ranked ascending by (distance, |starts_at - now|). The
// ordering is deterministic for identical inputs. An empty result is a valid
// outcome, not an error.
func (s *Service) Search(ctx context.Context, q Query) ([]Hit, error) {
	if !geo.Valid(q.Center.Lat, q.Center.Lon) {
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("query point: %w", geo.ErrInvalidCoordinate)
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = s.defaults.RadiusKm
	}
	if q.WindowHours <= 0 {
		q.WindowHours = s.defaults.WindowHours
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}

	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list active plans: %w", err)
	}

	windowEnd := q.Now.Add(time.Duration(q.WindowHours * float64(time.Hour)))
	radiusM := q.RadiusKm * 1000

	tagFilter := make(map[string]struct{}, len(q.Tags))
	for _, tag := range q.Tags {
		tagFilter[tag] = struct{}{}
	}

	hits := make([]Hit, 0, len(plans))
	for _, p := range plans {
		if !p.IsActive || !p.HasLocation {
			continue
		}
		// Plan must overlap [now, now+window]: not yet ended, starts inside.
		if p.StartsAt.After(windowEnd) || p.EndsAt.Before(q.Now) {
			continue
		}
		if len(tagFilter) > 0 && !sharesTag(p.Tags, tagFilter) {
			continue
		}
		d := geo.Haversine(q.Center, p.Location)
		if d > radiusM {
			continue
		}
		hits = append(hits, Hit{Plan: p, DistanceMeters: d})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return absDuration(hits[i].Plan.StartsAt.Sub(q.Now)) < absDuration(hits[j].Plan.StartsAt.Sub(q.Now))
	})

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchHits.Observe(float64(len(hits)))

	return hits, nil
}

// sharesTag reports OR semantics: one common tag is enough.
func sharesTag(tags []string, filter map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := filter[tag]; ok {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
