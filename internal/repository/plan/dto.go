package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
)

// parsePlan converts a flat hash map into a domain Plan. Location is
// optional; when present the coordinates are validated, never clamped.
// Timestamps are RFC3339.
func parsePlan(m map[string]string) (domain.Plan, error) {
	p := domain.Plan{ID: m["id"]}

	if m["lat"] != "" || m["lon"] != "" {
		lat, err := strconv.ParseFloat(m["lat"], 64)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("lat %q: %w", m["lat"], err)
		}
		lon, err := strconv.ParseFloat(m["lon"], 64)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("lon %q: %w", m["lon"], err)
		}
		loc, err := geo.NewPoint(lon, lat)
		if err != nil {
			return domain.Plan{}, err
		}
		p.Location = loc
		p.HasLocation = true
	}

	if raw := m["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Tags); err != nil {
			return domain.Plan{}, fmt.Errorf("tags %q: %w", raw, err)
		}
	}

	var err error
	if p.StartsAt, err = parseTime(m["starts_at"]); err != nil {
		return domain.Plan{}, fmt.Errorf("starts_at: %w", err)
	}
	if p.EndsAt, err = parseTime(m["ends_at"]); err != nil {
		return domain.Plan{}, fmt.Errorf("ends_at: %w", err)
	}

	p.IsActive = parseBool(m["is_active"])

	if raw := m["capacity"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("capacity %q: %w", raw, err)
		}
		p.Capacity = n
	}

	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseBool(s string) bool {
	return s == "1" || s == "true"
}
