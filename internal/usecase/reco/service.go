// Package reco computes personalized ranked recommendation snapshots from a
// user's aggregated interaction history.
package reco

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
	"github.com/spontime/geocore/internal/metrics"
)

// Config holds the scoring constants and batch caps. The v1 values are
// heuristics carried as configuration, not invariants.
type Config struct {
	BaseScore       float64
	TagWeight       float64
	ProximityBonus  float64
	ProximityMeters float64
	PoolCap         int
	TopN            int
	AlgoVersion     string
	Workers         int
}

// DefaultConfig returns the v1 scoring constants.
func DefaultConfig() Config {
	return Config{
		BaseScore:       0.5,
		TagWeight:       0.3,
		ProximityBonus:  0.2,
		ProximityMeters: 5000,
		PoolCap:         50,
		TopN:            20,
		AlgoVersion:     "v1.0",
		Workers:         8,
	}
}

// Summary reports the outcome of a full generation batch.
type Summary struct {
	Users     int
	Generated int
	Skipped   int
	Failures  int
}

// Service generates recommendation snapshots.
type Service struct {
	profiles   Aggregator
	candidates CandidateSource
	snapshots  SnapshotStore
	users      UserSource
	cfg        Config
	logger     *zap.Logger
}

// New creates a recommendation service.
func New(profiles Aggregator, candidates CandidateSource, snapshots SnapshotStore, users UserSource, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Service{
		profiles:   profiles,
		candidates: candidates,
		snapshots:  snapshots,
		users:      users,
		cfg:        cfg,
		logger:     logger,
	}
}

// GenerateFor builds and appends one snapshot for the user. Returns
// generated=false for the two documented skips: no interaction history, or
// no matching upcoming candidates. Neither is an error.
func (s *Service) GenerateFor(ctx context.Context, userID string, now time.Time) (domain.RecoSnapshot, bool, error) {
	profile, err := s.profiles.Aggregate(ctx, userID)
	if err != nil {
		return domain.RecoSnapshot{}, false, fmt.Errorf("aggregate history: %w", err)
	}
	if profile.IsEmpty() {
		metrics.RecoSnapshotsTotal.WithLabelValues("skipped").Inc()
		return domain.RecoSnapshot{}, false, nil
	}

	upcoming, err := s.candidates.ListUpcoming(ctx, now)
	if err != nil {
		return domain.RecoSnapshot{}, false, fmt.Errorf("list candidates: %w", err)
	}

	pool := make([]domain.Plan, 0, s.cfg.PoolCap)
	for _, p := range upcoming {
		if _, visited := profile.VisitedPlanIDs[p.ID]; visited {
			continue
		}
		pool = append(pool, p)
		if len(pool) == s.cfg.PoolCap {
			break
		}
	}
	if len(pool) == 0 {
		metrics.RecoSnapshotsTotal.WithLabelValues("skipped").Inc()
		return domain.RecoSnapshot{}, false, nil
	}

	if len(pool) > s.cfg.TopN {
		pool = pool[:s.cfg.TopN]
	}

	snap := domain.RecoSnapshot{
		ID:          uuid.NewString(),
		UserID:      userID,
		GeneratedAt: now.UnixMilli(),
		AlgoVersion: s.cfg.AlgoVersion,
		Items:       make([]domain.RecoItem, len(pool)),
	}
	for i, plan := range pool {
		snap.Items[i] = s.score(&profile, &plan)
	}

	if err := s.snapshots.Append(ctx, snap); err != nil {
		return domain.RecoSnapshot{}, false, fmt.Errorf("append snapshot: %w", err)
	}

	metrics.RecoSnapshotsTotal.WithLabelValues("ok").Inc()
	return snap, true, nil
}

// score computes one candidate's bounded relevance. Base plus a tag-overlap
// bonus, plus a flat proximity bonus inside the threshold -- a step function,
// a deliberate simplification over continuous decay. Clamped to 1.0.
func (s *Service) score(profile *domain.UserProfile, plan *domain.Plan) domain.RecoItem {
	score := s.cfg.BaseScore

	shared := 0
	for _, tag := range plan.Tags {
		if _, ok := profile.Tags[tag]; ok {
			shared++
		}
	}
	if shared > 0 {
		denom := len(profile.Tags)
		if denom < 1 {
			denom = 1
		}
		overlap := float64(shared) / float64(denom)
		if overlap > 1 {
			overlap = 1
		}
		score += s.cfg.TagWeight * overlap
	}

	distM := 0
	if profile.HasLocation && plan.HasLocation {
		d := geo.Haversine(profile.LastLocation, plan.Location)
		distM = int(d)
		if d < s.cfg.ProximityMeters {
			score += s.cfg.ProximityBonus
		}
	}

	if score > 1.0 {
		score = 1.0
	}

	return domain.RecoItem{
		PlanID:         plan.ID,
		Score:          score,
		DistanceMeters: distM,
		SharedTags:     shared,
	}
}

// GenerateAll fans snapshot generation out over every user with interaction
// history, bounded by cfg.Workers. One user's failure only loses that user's
// snapshot; the batch continues and reports a failure count.
func (s *Service) GenerateAll(ctx context.Context, now time.Time) (Summary, error) {
	start := time.Now()

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list users: %w", err)
	}

	var generated, skipped, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			_, ok, err := s.GenerateFor(gctx, userID, now)
			switch {
			case err != nil:
				failures.Add(1)
				metrics.RecoSnapshotsTotal.WithLabelValues("error").Inc()
				s.logger.Error("snapshot generation failed",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			case ok:
				generated.Add(1)
			default:
				skipped.Add(1)
			}
			return nil // unit failures never abort the batch
		})
	}

	_ = g.Wait()

	metrics.RecoBatchDuration.Observe(time.Since(start).Seconds())

	sum := Summary{
		Users:     len(userIDs),
		Generated: int(generated.Load()),
		Skipped:   int(skipped.Load()),
		Failures:  int(failures.Load()),
	}

	s.logger.Info("recommendation batch complete",
		zap.Int("users", sum.Users),
		zap.Int("generated", sum.Generated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failures", sum.Failures),
		zap.Duration("took", time.Since(start)),
	)

	return sum, nil
}
