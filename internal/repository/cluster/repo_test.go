package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spontime/geocore/internal/db"
	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
)

func TestReplaceScope_WritesSingleDocument(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	var gotValue []byte
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		gotKey = key
		gotValue = value
		return nil
	}

	clusters := []domain.Cluster{
		{ID: "c1", Label: "Places Cluster 0", Scope: domain.ScopePlaces,
			Centroid: geo.Point{Lat: 40.7, Lon: -74.0}, MemberCount: 3},
	}
	if err := repo.ReplaceScope(context.Background(), domain.ScopePlaces, clusters); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "geocore:clusters:places" {
		t.Errorf("unexpected key %q", gotKey)
	}

	var doc clusterSet
	if err := json.Unmarshal(gotValue, &doc); err != nil {
		t.Fatalf("stored value is not valid JSON: %v", err)
	}
	if doc.Scope != domain.ScopePlaces || len(doc.Clusters) != 1 {
		t.Errorf("unexpected document %+v", doc)
	}
	if doc.UpdatedAt == 0 {
		t.Error("expected a write timestamp")
	}
}

func TestReplaceScope_EmptySetIsValid(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotValue []byte
	ms.setFn = func(_ context.Context, _ string, value []byte) error {
		gotValue = value
		return nil
	}

	if err := repo.ReplaceScope(context.Background(), domain.ScopeVenues, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc clusterSet
	if err := json.Unmarshal(gotValue, &doc); err != nil {
		t.Fatalf("stored value is not valid JSON: %v", err)
	}
	if doc.Clusters == nil || len(doc.Clusters) != 0 {
		t.Errorf("expected an explicit empty set, got %+v", doc.Clusters)
	}
}

func TestListByScope_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)

	doc := clusterSet{
		Scope: domain.ScopePlans,
		Clusters: []domain.Cluster{
			{ID: "c1", Label: "Plans Cluster 0", Scope: domain.ScopePlans, MemberCount: 2},
			{ID: "c2", Label: "Plans Cluster 1", Scope: domain.ScopePlans, MemberCount: 4},
		},
	}
	raw, _ := json.Marshal(doc)
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "geocore:clusters:plans" {
			t.Errorf("unexpected key %q", key)
		}
		return raw, nil
	}

	clusters, err := repo.ListByScope(context.Background(), domain.ScopePlans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 2 || clusters[1].Label != "Plans Cluster 1" {
		t.Errorf("unexpected clusters %+v", clusters)
	}
}

func TestListByScope_NeverClustered(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	clusters, err := repo.ListByScope(context.Background(), domain.ScopePlaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clusters != nil {
		t.Errorf("expected empty set, got %+v", clusters)
	}
}

func TestListByScope_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("boom")
	}

	if _, err := repo.ListByScope(context.Background(), domain.ScopePlaces); err == nil {
		t.Fatal("expected error")
	}
}
