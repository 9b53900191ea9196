// Package interaction reads check-in and attendance records from the shared
// keyspace. The records are written by the persistence layer; this
// repository is read-only.
package interaction

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spontime/geocore/internal/domain"
)

// store is the consumer interface for interaction records (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/history.CheckInSource, AttendanceSource and
// usecase/reco.UserSource.
type Repo struct {
	store  store
	prefix string
}

// New creates an interaction repository. An empty prefix falls back to the
// default keyspace prefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// ListCheckInsByUser returns every check-in recorded for the user.
func (r *Repo) ListCheckInsByUser(ctx context.Context, userID string) ([]domain.CheckIn, error) {
	rows, keys, err := r.fetch(ctx, fmt.Sprintf("%scheckin:%s:*", r.prefix, userID))
	if err != nil {
		return nil, err
	}

	checkins := make([]domain.CheckIn, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		c, err := parseCheckIn(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		checkins = append(checkins, c)
	}
	return checkins, nil
}

// ListAttendancesByUser returns every attendance recorded for the user,
// whatever its status. Filtering on status is the aggregator's concern.
func (r *Repo) ListAttendancesByUser(ctx context.Context, userID string) ([]domain.Attendance, error) {
	rows, keys, err := r.fetch(ctx, fmt.Sprintf("%sattendance:%s:*", r.prefix, userID))
	if err != nil {
		return nil, err
	}

	attendances := make([]domain.Attendance, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		a, err := parseAttendance(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		attendances = append(attendances, a)
	}
	return attendances, nil
}

// ListUserIDs returns the sorted ids of every user with at least one
// interaction record, derived from the key structure alone.
func (r *Repo) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, kind := range []string{"checkin", "attendance"} {
		pattern := r.prefix + kind + ":*"
		keys, err := r.store.Scan(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		for _, key := range keys {
			if userID := r.userSegment(key, kind); userID != "" {
				seen[userID] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repo) fetch(ctx context.Context, pattern string) ([]map[string]string, []string, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}
	sort.Strings(keys)

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("hgetall %d keys: %w", len(keys), err)
	}
	return rows, keys, nil
}

// userSegment extracts {user_id} from "{prefix}{kind}:{user_id}:{id}".
func (r *Repo) userSegment(key, kind string) string {
	rest, ok := strings.CutPrefix(key, r.prefix+kind+":")
	if !ok {
		return ""
	}
	userID, _, ok := strings.Cut(rest, ":")
	if !ok {
		return ""
	}
	return userID
}
