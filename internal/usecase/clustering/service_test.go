package clustering

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
)

// --- Mocks ---

type mockEntities struct {
	byScope map[domain.Scope][]domain.LocatedEntity
	err     error
}

func (m *mockEntities) ListByScope(_ context.Context, scope domain.Scope) ([]domain.LocatedEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byScope[scope], nil
}

type mockClusterStore struct {
	replaced map[domain.Scope][]domain.Cluster
	err      error
	calls    int
}

func (m *mockClusterStore) ReplaceScope(_ context.Context, scope domain.Scope, clusters []domain.Cluster) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.replaced == nil {
		m.replaced = make(map[domain.Scope][]domain.Cluster)
	}
	m.replaced[scope] = clusters
	return nil
}

func defaultParams() map[domain.Scope]Params {
	return map[domain.Scope]Params{
		domain.ScopePlaces: {EpsDegrees: 0.01, MinSamples: 2},
		domain.ScopeVenues: {EpsDegrees: 0.01, MinSamples: 2},
	}
}

func entity(id string, scope domain.Scope, lat, lon float64) domain.LocatedEntity {
	return domain.LocatedEntity{ID: id, Scope: scope, Location: geo.Point{Lat: lat, Lon: lon}}
}

// --- Tests ---

func TestRun_ThreePoints_OneCluster(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{
		domain.ScopePlaces: {
			entity("a", domain.ScopePlaces, 40.7128, -74.0060),
			entity("b", domain.ScopePlaces, 40.7129, -74.0061),
			entity("c", domain.ScopePlaces, 40.7130, -74.0062),
		},
	}}
	store := &mockClusterStore{}
	svc := New(src, store, defaultParams(), nil)

	n, err := svc.Run(context.Background(), domain.ScopePlaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cluster, got %d", n)
	}

	clusters := store.replaced[domain.ScopePlaces]
	if len(clusters) != 1 {
		t.Fatalf("expected 1 stored cluster, got %d", len(clusters))
	}

	c := clusters[0]
	if c.MemberCount != 3 {
		t.Errorf("expected 3 members, got %d", c.MemberCount)
	}
	if c.Scope != domain.ScopePlaces {
		t.Errorf("unexpected scope %q", c.Scope)
	}
	if c.Label != "Places Cluster 0" {
		t.Errorf("unexpected label %q", c.Label)
	}

	wantLat := (40.7128 + 40.7129 + 40.7130) / 3
	wantLon := (-74.0060 + -74.0061 + -74.0062) / 3
	if math.Abs(c.Centroid.Lat-wantLat) > 1e-9 || math.Abs(c.Centroid.Lon-wantLon) > 1e-9 {
		t.Errorf("centroid (%f,%f), want (%f,%f)", c.Centroid.Lat, c.Centroid.Lon, wantLat, wantLon)
	}
	if c.RadiusMeters <= 0 {
		t.Errorf("expected positive radius, got %f", c.RadiusMeters)
	}
	if c.ID == "" {
		t.Error("expected a cluster id")
	}
}

func TestRun_FewerThanTwoEntities_NoOp(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{
		domain.ScopePlaces: {entity("a", domain.ScopePlaces, 40.7128, -74.0060)},
	}}
	store := &mockClusterStore{}
	svc := New(src, store, defaultParams(), nil)

	n, err := svc.Run(context.Background(), domain.ScopePlaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 clusters, got %d", n)
	}
	if store.calls != 0 {
		t.Error("no-op run must not touch the cluster store")
	}
}

func TestRun_EmptyScope_NoOp(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{}}
	store := &mockClusterStore{}
	svc := New(src, store, defaultParams(), nil)

	n, err := svc.Run(context.Background(), domain.ScopeVenues)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || store.calls != 0 {
		t.Fatalf("expected no-op, got n=%d calls=%d", n, store.calls)
	}
}

func TestRun_AllNoise_ReplacesWithEmptySet(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{
		domain.ScopePlaces: {
			entity("a", domain.ScopePlaces, 40.0, -74.0),
			entity("b", domain.ScopePlaces, 45.0, -80.0),
		},
	}}
	store := &mockClusterStore{}
	svc := New(src, store, defaultParams(), nil)

	n, err := svc.Run(context.Background(), domain.ScopePlaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 clusters, got %d", n)
	}
	if store.calls != 1 {
		t.Fatal("expected the empty set to replace the previous one")
	}
	if got := store.replaced[domain.ScopePlaces]; len(got) != 0 {
		t.Fatalf("expected empty cluster set, got %d", len(got))
	}
}

func TestRun_UnknownScope(t *testing.T) {
	svc := New(&mockEntities{}, &mockClusterStore{}, defaultParams(), nil)

	_, err := svc.Run(context.Background(), domain.Scope("moons"))
	if !errors.Is(err, domain.ErrUnknownScope) {
		t.Fatalf("want ErrUnknownScope, got %v", err)
	}
}

func TestRun_Idempotent(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{
		domain.ScopePlaces: {
			entity("a", domain.ScopePlaces, 40.7128, -74.0060),
			entity("b", domain.ScopePlaces, 40.7129, -74.0061),
			entity("c", domain.ScopePlaces, 40.7130, -74.0062),
			entity("d", domain.ScopePlaces, 41.9000, -73.0000),
		},
	}}
	store := &mockClusterStore{}
	svc := New(src, store, defaultParams(), nil)

	if _, err := svc.Run(context.Background(), domain.ScopePlaces); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := store.replaced[domain.ScopePlaces]

	if _, err := svc.Run(context.Background(), domain.ScopePlaces); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := store.replaced[domain.ScopePlaces]

	if len(first) != len(second) {
		t.Fatalf("cluster count differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Centroid != second[i].Centroid {
			t.Errorf("cluster %d centroid differs", i)
		}
		if first[i].MemberCount != second[i].MemberCount {
			t.Errorf("cluster %d member count differs", i)
		}
	}
}

func TestRunAll_IsolatesScopeFailures(t *testing.T) {
	src := &mockEntities{byScope: map[domain.Scope][]domain.LocatedEntity{
		domain.ScopePlaces: {
			entity("a", domain.ScopePlaces, 40.7128, -74.0060),
			entity("b", domain.ScopePlaces, 40.7129, -74.0061),
		},
		domain.ScopeVenues: {
			entity("v1", domain.ScopeVenues, 40.7128, -74.0060),
			entity("v2", domain.ScopeVenues, 40.7129, -74.0061),
		},
	}}
	store := &failOnceStore{failScope: domain.ScopePlaces}
	svc := New(src, store, defaultParams(), nil)

	sum := svc.RunAll(context.Background())

	if sum.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", sum.Failures)
	}
	if sum.Clusters != 1 {
		t.Errorf("expected 1 cluster from the healthy scope, got %d", sum.Clusters)
	}
	if _, ok := store.replaced[domain.ScopeVenues]; !ok {
		t.Error("healthy scope should still be replaced")
	}
}

// failOnceStore fails replacement for a single scope.
type failOnceStore struct {
	failScope domain.Scope
	replaced  map[domain.Scope][]domain.Cluster
}

func (m *failOnceStore) ReplaceScope(_ context.Context, scope domain.Scope, clusters []domain.Cluster) error {
	if scope == m.failScope {
		return errors.New("store unavailable")
	}
	if m.replaced == nil {
		m.replaced = make(map[domain.Scope][]domain.Cluster)
	}
	m.replaced[scope] = clusters
	return nil
}
