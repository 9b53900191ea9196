// Package clustering partitions geolocated entities into density-based
// spatial clusters, one independent run per scope.
package clustering

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
	"github.com/spontime/geocore/internal/metrics"
)

// Params holds the DBSCAN parameters for one scope.
type Params struct {
	EpsDegrees float64
	MinSamples int
}

// Summary reports the outcome of a full clustering batch. Per-scope failures
// are isolated; a failed scope keeps its previously committed cluster set.
type Summary struct {
	Scopes   int
	Clusters int
	Skipped  int
	Failures int
}

// Service runs density-based clustering per scope.
type Service struct {
	entities EntitySource
	clusters ClusterStore
	scopes   map[domain.Scope]Params
	logger   *zap.Logger
}

// New creates a clustering service. scopes maps each clustered scope to its
// DBSCAN parameters; scopes without an entry are rejected.
func New(entities EntitySource, clusters ClusterStore, scopes map[domain.Scope]Params, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{entities: entities, clusters: clusters, scopes: scopes, logger: logger}
}

// Run clusters one scope and atomically replaces its cluster set.
// Fewer than two entities is a documented no-op: the previous cluster set
// stays committed and zero is returned. All points ending up as noise is a
// valid outcome and replaces the set with an empty one.
func (s *Service) Run(ctx context.Context, scope domain.Scope) (int, error) {
	params, ok := s.scopes[scope]
	if !ok {
		return 0, fmt.Errorf("scope %q: %w", scope, domain.ErrUnknownScope)
	}

	start := time.Now()

	entities, err := s.entities.ListByScope(ctx, scope)
	if err != nil {
		metrics.ClusteringRunsTotal.WithLabelValues(string(scope), "error").Inc()
		return 0, fmt.Errorf("list entities: %w", err)
	}

	if len(entities) < 2 {
		metrics.ClusteringRunsTotal.WithLabelValues(string(scope), "skipped").Inc()
		s.logger.Debug("clustering skipped",
			zap.String("scope", string(scope)),
			zap.Int("entities", len(entities)),
		)
		return 0, nil
	}

	clusters := buildClusters(entities, scope, params)

	if err := s.clusters.ReplaceScope(ctx, scope, clusters); err != nil {
		metrics.ClusteringRunsTotal.WithLabelValues(string(scope), "error").Inc()
		return 0, fmt.Errorf("replace clusters: %w", err)
	}

	metrics.ClusteringRunsTotal.WithLabelValues(string(scope), "ok").Inc()
	metrics.ClusteringDuration.WithLabelValues(string(scope)).Observe(time.Since(start).Seconds())
	metrics.ClustersProduced.WithLabelValues(string(scope)).Set(float64(len(clusters)))

	s.logger.Info("clustering run complete",
		zap.String("scope", string(scope)),
		zap.Int("entities", len(entities)),
		zap.Int("clusters", len(clusters)),
		zap.Duration("took", time.Since(start)),
	)

	return len(clusters), nil
}

// RunAll clusters every configured scope. One scope's failure only loses that
// scope's output; the batch continues and reports a failure count.
func (s *Service) RunAll(ctx context.Context) Summary {
	scopes := make([]domain.Scope, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })

	var sum Summary
	sum.Scopes = len(scopes)

	for _, scope := range scopes {
		n, err := s.Run(ctx, scope)
		if err != nil {
			sum.Failures++
			s.logger.Error("clustering scope failed",
				zap.String("scope", string(scope)),
				zap.Error(err),
			)
			continue
		}
		if n == 0 {
			sum.Skipped++
		}
		sum.Clusters += n
	}

	return sum
}

// buildClusters runs DBSCAN and materializes retained clusters. Centroid is
// the arithmetic mean of member coordinates and radius the max planar member
// distance from it, both under the documented small-angle approximation.
func buildClusters(entities []domain.LocatedEntity, scope domain.Scope, params Params) []domain.Cluster {
	points := make([]geo.Point, len(entities))
	for i, e := range entities {
		points[i] = e.Location
	}

	labels := dbscan(points, params.EpsDegrees, params.MinSamples)

	members := make(map[int][]geo.Point)
	for i, label := range labels {
		if label == noiseLabel {
			continue
		}
		members[label] = append(members[label], points[i])
	}

	labelIDs := make([]int, 0, len(members))
	for label := range members {
		labelIDs = append(labelIDs, label)
	}
	sort.Ints(labelIDs)

	now := time.Now().UnixMilli()
	clusters := make([]domain.Cluster, 0, len(labelIDs))

	for _, label := range labelIDs {
		pts := members[label]

		var sumLat, sumLon float64
		for _, p := range pts {
			sumLat += p.Lat
			sumLon += p.Lon
		}
		centroid := geo.Point{
			Lon: sumLon / float64(len(pts)),
			Lat: sumLat / float64(len(pts)),
		}

		var maxDeg float64
		for _, p := range pts {
			if d := geo.EuclideanDegrees(centroid, p); d > maxDeg {
				maxDeg = d
			}
		}

		clusters = append(clusters, domain.Cluster{
			ID:           uuid.NewString(),
			Label:        clusterLabel(scope, label),
			Scope:        scope,
			Centroid:     centroid,
			RadiusMeters: geo.DegreesToMeters(maxDeg),
			MemberCount:  len(pts),
			CreatedAt:    now,
		})
	}

	return clusters
}

// clusterLabel formats the human-readable label, e.g. "Places Cluster 0".
func clusterLabel(scope domain.Scope, label int) string {
	name := string(scope)
	if name != "" && name[0] >= 'a' && name[0] <= 'z' {
		name = string(name[0]-'a'+'A') + name[1:]
	}
	return fmt.Sprintf("%s Cluster %d", name, label)
}
