package reco

import (
	"context"
	"time"

	"github.com/spontime/geocore/internal/domain"
)

// Aggregator supplies the user's interaction profile.
type Aggregator interface {
	Aggregate(ctx context.Context, userID string) (domain.UserProfile, error)
}

// CandidateSource lists active plans starting at or after now, ordered by
// start time ascending.
type CandidateSource interface {
	ListUpcoming(ctx context.Context, now time.Time) ([]domain.Plan, error)
}

// SnapshotStore persists recommendation snapshots append-only. A later
// snapshot supersedes earlier ones only through the latest pointer; bodies
// are never mutated.
type SnapshotStore interface {
	Append(ctx context.Context, snap domain.RecoSnapshot) error
}

// UserSource lists the users with at least one interaction record.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}
