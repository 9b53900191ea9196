// Package history aggregates a user's interaction records into the profile
// consumed by recommendation scoring.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spontime/geocore/internal/domain"
)

// Service builds user profiles from check-ins and attendances.
type Service struct {
	checkins    CheckInSource
	attendances AttendanceSource
	plans       PlanReader
}

// New creates a history aggregation service.
func New(checkins CheckInSource, attendances AttendanceSource, plans PlanReader) *Service {
	return &Service{checkins: checkins, attendances: attendances, plans: plans}
}

// Aggregate unions the user's check-ins and joined attendances, collects the
// tags of every interacted plan, and resolves the last known location from
// the most recent located check-in. A user with no interactions gets an
// empty profile; the caller skips recommendation generation for those.
func (s *Service) Aggregate(ctx context.Context, userID string) (domain.UserProfile, error) {
	profile := domain.UserProfile{
		UserID:         userID,
		Tags:           make(map[string]struct{}),
		VisitedPlanIDs: make(map[string]struct{}),
	}

	checkins, err := s.checkins.ListCheckInsByUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("list check-ins: %w", err)
	}
	attendances, err := s.attendances.ListAttendancesByUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("list attendances: %w", err)
	}

	var lastAt time.Time
	for _, c := range checkins {
		profile.VisitedPlanIDs[c.PlanID] = struct{}{}
		if c.HasLocation && c.OccurredAt.After(lastAt) {
			lastAt = c.OccurredAt
			profile.LastLocation = c.Location
			profile.HasLocation = true
		}
	}

	for _, a := range attendances {
		if a.Status != domain.AttendanceJoined {
			continue
		}
		profile.VisitedPlanIDs[a.PlanID] = struct{}{}
	}

	if len(profile.VisitedPlanIDs) == 0 {
		return profile, nil
	}

	ids := make([]string, 0, len(profile.VisitedPlanIDs))
	for id := range profile.VisitedPlanIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	plans, err := s.plans.GetMulti(ctx, ids)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get interacted plans: %w", err)
	}
	for _, p := range plans {
		for _, tag := range p.Tags {
			profile.Tags[tag] = struct{}{}
		}
	}

	return profile, nil
}
