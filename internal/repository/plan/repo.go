// Package plan reads plan records from the shared keyspace. Plans are
// written by the persistence layer; this repository is read-only.
package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spontime/geocore/internal/domain"
)

// store is the consumer interface for plan records (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/reco.CandidateSource, usecase/search.PlanSource
// and usecase/history.PlanReader.
type Repo struct {
	store  store
	prefix string
}

// New creates a plan repository. An empty prefix falls back to the default
// keyspace prefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// ListUpcoming returns active plans starting at or after now, ordered by
// start time ascending with the plan id as tie-breaker for determinism.
func (r *Repo) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Plan, error) {
	plans, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}

	upcoming := plans[:0]
	for _, p := range plans {
		if p.IsActive && !p.StartsAt.Before(now) {
			upcoming = append(upcoming, p)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].StartsAt.Equal(upcoming[j].StartsAt) {
			return upcoming[i].StartsAt.Before(upcoming[j].StartsAt)
		}
		return upcoming[i].ID < upcoming[j].ID
	})
	return upcoming, nil
}

// ListActive returns every active plan regardless of time window.
func (r *Repo) ListActive(ctx context.Context) ([]domain.Plan, error) {
	plans, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}
	active := plans[:0]
	for _, p := range plans {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// GetMulti returns the plans for the given ids, skipping missing ones.
func (r *Repo) GetMulti(ctx context.Context, ids []string) ([]domain.Plan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall %d plans: %w", len(keys), err)
	}

	plans := make([]domain.Plan, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		p, err := parsePlan(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *Repo) listAll(ctx context.Context) ([]domain.Plan, error) {
	pattern := r.prefix + "plan:*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall %d plans: %w", len(keys), err)
	}

	plans := make([]domain.Plan, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		p, err := parsePlan(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "plan:" + id
}
