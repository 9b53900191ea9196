package search

import (
	"context"

	"github.com/spontime/geocore/internal/domain"
)

// PlanSource lists every currently active plan. The search service applies
// the time-window, tag and radius filters itself.
type PlanSource interface {
	ListActive(ctx context.Context) ([]domain.Plan, error)
}
