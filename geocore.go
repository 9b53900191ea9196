// Package geocore is the in-process client for the geospatial clustering
// and recommendation engine. It reads entity, plan, and interaction records
// from the shared keyspace, computes density-based clusters, personalized
// recommendation snapshots, and proximity rankings, and writes the computed
// artifacts back for the read APIs.
package geocore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spontime/geocore/internal/db"
	dbRedis "github.com/spontime/geocore/internal/db/redis"
	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
	clusterrepo "github.com/spontime/geocore/internal/repository/cluster"
	entityrepo "github.com/spontime/geocore/internal/repository/entity"
	interactionrepo "github.com/spontime/geocore/internal/repository/interaction"
	planrepo "github.com/spontime/geocore/internal/repository/plan"
	snapshotrepo "github.com/spontime/geocore/internal/repository/snapshot"
	clusteringuc "github.com/spontime/geocore/internal/usecase/clustering"
	historyuc "github.com/spontime/geocore/internal/usecase/history"
	recouc "github.com/spontime/geocore/internal/usecase/reco"
	searchuc "github.com/spontime/geocore/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the geocore entry point.
type Client struct {
	store      db.Store
	clusters   *clusterrepo.Repo
	snapshots  *snapshotrepo.Repo
	clustering *clusteringuc.Service
	reco       *recouc.Service
	search     *searchuc.Service
}

// New creates a geocore Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		scopes: map[string]ScopeParams{
			string(domain.ScopePlaces): {EpsDegrees: 0.01, MinSamples: 2},
			string(domain.ScopeVenues): {EpsDegrees: 0.01, MinSamples: 2},
			string(domain.ScopePlans):  {EpsDegrees: 0.01, MinSamples: 2},
		},
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("geocore: database address required (use WithRedis or WithValkey)")
	}
	switch cfg.driver {
	case "redis", "valkey": // both speak RESP; one store serves either
	default:
		return nil, fmt.Errorf("geocore: unknown driver %q", cfg.driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("geocore: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("geocore: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	entities := entityrepo.New(store, cfg.keyPrefix)
	plans := planrepo.New(store, cfg.keyPrefix)
	interactions := interactionrepo.New(store, cfg.keyPrefix)
	clusters := clusterrepo.New(store, cfg.keyPrefix)
	snapshots := snapshotrepo.New(store, cfg.keyPrefix)

	scopes := make(map[domain.Scope]clusteringuc.Params, len(cfg.scopes))
	for scope, p := range cfg.scopes {
		scopes[domain.Scope(scope)] = clusteringuc.Params{
			EpsDegrees: p.EpsDegrees,
			MinSamples: p.MinSamples,
		}
	}

	recoCfg := recouc.DefaultConfig()
	if cfg.scoring != nil {
		recoCfg = recouc.Config(*cfg.scoring)
	}

	defaults := searchuc.DefaultDefaults()
	if cfg.searchRadiusKm > 0 {
		defaults.RadiusKm = cfg.searchRadiusKm
	}
	if cfg.searchWindowHours > 0 {
		defaults.WindowHours = cfg.searchWindowHours
	}

	history := historyuc.New(interactions, interactions, plans)

	return &Client{
		store:      store,
		clusters:   clusters,
		snapshots:  snapshots,
		clustering: clusteringuc.New(entities, clusters, scopes, cfg.logger),
		reco:       recouc.New(history, plans, snapshots, interactions, recoCfg, cfg.logger),
		search:     searchuc.New(plans, defaults, cfg.logger),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// UpdateClusters runs the full clustering batch over every configured scope
// and atomically replaces each scope's cluster set.
func (c *Client) UpdateClusters(ctx context.Context) ClusteringSummary {
	sum := c.clustering.RunAll(ctx)
	return ClusteringSummary{
		Scopes:   sum.Scopes,
		Clusters: sum.Clusters,
		Skipped:  sum.Skipped,
		Failures: sum.Failures,
	}
}

// ClustersByScope returns the scope's current cluster set. A scope never
// clustered yields an empty set.
func (c *Client) ClustersByScope(ctx context.Context, scope string) ([]Cluster, error) {
	s := domain.Scope(scope)
	if !s.IsValid() {
		return nil, fmt.Errorf("scope %q: %w", scope, domain.ErrUnknownScope)
	}

	clusters, err := c.clusters.ListByScope(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	out := make([]Cluster, len(clusters))
	for i, cl := range clusters {
		out[i] = clusterFromDomain(cl)
	}
	return out, nil
}

// GenerateRecommendations runs the full recommendation batch over every
// user with interaction history.
func (c *Client) GenerateRecommendations(ctx context.Context) (RecoSummary, error) {
	sum, err := c.reco.GenerateAll(ctx, time.Now())
	if err != nil {
		return RecoSummary{}, fmt.Errorf("generate recommendations: %w", err)
	}
	return RecoSummary{
		Users:     sum.Users,
		Generated: sum.Generated,
		Skipped:   sum.Skipped,
		Failures:  sum.Failures,
	}, nil
}

// Feed returns the user's latest recommendation snapshot with items sorted
// by score descending. ErrNoFeed is returned when no snapshot exists yet.
func (c *Client) Feed(ctx context.Context, userID string) (Feed, error) {
	snap, err := c.snapshots.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Feed{}, ErrNoFeed
		}
		return Feed{}, fmt.Errorf("latest snapshot: %w", err)
	}

	feed := feedFromDomain(snap)
	sortFeedItems(feed.Items)
	return feed, nil
}

// Nearby returns active plans around the query point whose time range
// overlaps the forward window, ranked by distance then temporal proximity.
func (c *Client) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyHit, error) {
	hits, err := c.search.Search(ctx, searchuc.Query{
		Center:      geo.Point{Lat: q.Lat, Lon: q.Lon},
		RadiusKm:    q.RadiusKm,
		WindowHours: q.WindowHours,
		Tags:        q.Tags,
		Now:         time.Now(),
	})
	if err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			return nil, ErrInvalidCoordinate
		}
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	out := make([]NearbyHit, len(hits))
	for i, h := range hits {
		out[i] = hitFromDomain(h)
	}
	return out, nil
}
