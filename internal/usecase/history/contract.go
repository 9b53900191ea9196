package history

import (
	"context"

	"github.com/spontime/geocore/internal/domain"
)

// CheckInSource reads check-in records for a user.
type CheckInSource interface {
	ListCheckInsByUser(ctx context.Context, userID string) ([]domain.CheckIn, error)
}

// AttendanceSource reads attendance records for a user.
type AttendanceSource interface {
	ListAttendancesByUser(ctx context.Context, userID string) ([]domain.Attendance, error)
}

// PlanReader fetches plan snapshots by id for tag collection.
type PlanReader interface {
	GetMulti(ctx context.Context, ids []string) ([]domain.Plan, error)
}
