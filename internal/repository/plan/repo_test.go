package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spontime/geocore/internal/domain/geo"
)

var planNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func planRow(id string, startsIn time.Duration, active bool) map[string]string {
	act := "0"
	if active {
		act = "1"
	}
	return map[string]string{
		"id":        id,
		"starts_at": planNow.Add(startsIn).Format(time.RFC3339),
		"ends_at":   planNow.Add(startsIn + 2*time.Hour).Format(time.RFC3339),
		"is_active": act,
	}
}

func TestListUpcoming_FiltersAndSorts(t *testing.T) {
	repo, ms := newTestRepo(t)
	seed(ms, map[string]map[string]string{
		"geocore:plan:later":    planRow("later", 3*time.Hour, true),
		"geocore:plan:soon":     planRow("soon", time.Hour, true),
		"geocore:plan:past":     planRow("past", -time.Hour, true),
		"geocore:plan:inactive": planRow("inactive", time.Hour, false),
	})

	plans, err := repo.ListUpcoming(context.Background(), planNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].ID != "soon" || plans[1].ID != "later" {
		t.Errorf("expected start-time order, got %s, %s", plans[0].ID, plans[1].ID)
	}
}

func TestListUpcoming_TieBrokenByID(t *testing.T) {
	repo, ms := newTestRepo(t)
	seed(ms, map[string]map[string]string{
		"geocore:plan:b": planRow("b", time.Hour, true),
		"geocore:plan:a": planRow("a", time.Hour, true),
	})

	plans, err := repo.ListUpcoming(context.Background(), planNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plans[0].ID != "a" || plans[1].ID != "b" {
		t.Errorf("expected id tie-break, got %s, %s", plans[0].ID, plans[1].ID)
	}
}

func TestListActive_KeepsPastPlans(t *testing.T) {
	repo, ms := newTestRepo(t)
	seed(ms, map[string]map[string]string{
		"geocore:plan:past":     planRow("past", -time.Hour, true),
		"geocore:plan:inactive": planRow("inactive", time.Hour, false),
	})

	plans, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "past" {
		t.Fatalf("expected only the active plan, got %+v", plans)
	}
}

func TestGetMulti_SkipsMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	var asked []string
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		asked = keys
		return []map[string]string{
			planRow("p1", time.Hour, true),
			{},
		}, nil
	}

	plans, err := repo.GetMulti(context.Background(), []string{"p1", "gone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "p1" {
		t.Fatalf("expected only p1, got %+v", plans)
	}
	if asked[0] != "geocore:plan:p1" || asked[1] != "geocore:plan:gone" {
		t.Errorf("unexpected keys %v", asked)
	}
}

func TestGetMulti_NoIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	called := false
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		called = true
		return nil, nil
	}

	plans, err := repo.GetMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plans != nil || called {
		t.Error("no lookup expected for empty id list")
	}
}

func TestParsePlan_FullRecord(t *testing.T) {
	p, err := parsePlan(map[string]string{
		"id":        "p1",
		"lat":       "40.7128",
		"lon":       "-74.0060",
		"tags":      `["coffee","music"]`,
		"starts_at": "2026-08-28T13:00:00Z",
		"ends_at":   "2026-08-28T15:00:00Z",
		"is_active": "1",
		"capacity":  "12",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.HasLocation || p.Location.Lat != 40.7128 {
		t.Errorf("unexpected location %+v", p.Location)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "coffee" {
		t.Errorf("unexpected tags %v", p.Tags)
	}
	if !p.IsActive || p.Capacity != 12 {
		t.Errorf("unexpected flags %+v", p)
	}
	if p.StartsAt.Hour() != 13 {
		t.Errorf("unexpected starts_at %v", p.StartsAt)
	}
}

func TestParsePlan_NoLocation(t *testing.T) {
	p, err := parsePlan(map[string]string{"id": "p1", "is_active": "true"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HasLocation {
		t.Error("expected no location")
	}
	if !p.IsActive {
		t.Error("expected 'true' to parse as active")
	}
}

func TestParsePlan_InvalidCoordinate(t *testing.T) {
	_, err := parsePlan(map[string]string{"id": "p1", "lat": "91", "lon": "0"})
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestListUpcoming_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("boom")
	}

	if _, err := repo.ListUpcoming(context.Background(), planNow); err == nil {
		t.Fatal("expected error")
	}
}
