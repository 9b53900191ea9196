package domain

import (
	"time"

	"github.com/spontime/geocore/internal/domain/geo"
)

// AttendanceJoined is the attendance status counted as an interaction.
const AttendanceJoined = "joined"

// CheckIn is a read-only snapshot of a check-in record. Location is optional.
type CheckIn struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PlanID      string    `json:"plan_id"`
	Location    geo.Point `json:"location"`
	HasLocation bool      `json:"has_location"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Attendance is a read-only snapshot of an attendance record.
type Attendance struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	PlanID   string    `json:"plan_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// UserProfile is the aggregated interaction history for one user.
type UserProfile struct {
	UserID         string
	Tags           map[string]struct{}
	LastLocation   geo.Point
	HasLocation    bool
	VisitedPlanIDs map[string]struct{}
}

// IsEmpty reports whether the user has no interaction history at all.
func (p *UserProfile) IsEmpty() bool {
	return len(p.VisitedPlanIDs) == 0
}
