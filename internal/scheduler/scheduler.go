// Package scheduler drives the periodic batch jobs. Both jobs are
// re-entrant: an aborted run leaves previously committed state intact, so
// the scheduler never coordinates with readers.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/usecase/clustering"
	"github.com/spontime/geocore/internal/usecase/reco"
)

// ClusteringRunner runs the full clustering batch.
type ClusteringRunner interface {
	RunAll(ctx context.Context) clustering.Summary
}

// RecoRunner runs the full recommendation batch.
type RecoRunner interface {
	GenerateAll(ctx context.Context, now time.Time) (reco.Summary, error)
}

// Scheduler runs the batch jobs on fixed intervals.
type Scheduler struct {
	clustering         ClusteringRunner
	reco               RecoRunner
	clusteringInterval time.Duration
	recoInterval       time.Duration
	logger             *zap.Logger
}

// New creates a scheduler. Non-positive intervals disable the job.
func New(
	clusteringRunner ClusteringRunner,
	recoRunner RecoRunner,
	clusteringInterval, recoInterval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clustering:         clusteringRunner,
		reco:               recoRunner,
		clusteringInterval: clusteringInterval,
		recoInterval:       recoInterval,
		logger:             logger,
	}
}

// Run executes both jobs once immediately, then on their intervals until the
// context is cancelled. It blocks; callers run it in a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	if s.clusteringInterval > 0 {
		go s.loop(ctx, "clustering", s.clusteringInterval, s.runClustering)
	}
	if s.recoInterval > 0 {
		go s.loop(ctx, "recommendations", s.recoInterval, s.runReco)
	}
	<-ctx.Done()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, job func(context.Context)) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler loop stopped", zap.String("job", name))
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *Scheduler) runClustering(ctx context.Context) {
	sum := s.clustering.RunAll(ctx)
	s.logger.Info("scheduled clustering batch finished",
		zap.Int("scopes", sum.Scopes),
		zap.Int("clusters", sum.Clusters),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failures", sum.Failures),
	)
}

func (s *Scheduler) runReco(ctx context.Context) {
	sum, err := s.reco.GenerateAll(ctx, time.Now())
	if err != nil {
		s.logger.Error("scheduled recommendation batch failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled recommendation batch finished",
		zap.Int("users", sum.Users),
		zap.Int("generated", sum.Generated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failures", sum.Failures),
	)
}
