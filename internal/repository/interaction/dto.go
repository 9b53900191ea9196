package interaction

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
)

// parseCheckIn converts a flat hash map into a domain CheckIn. Location is
// optional; when present the coordinates are validated, never clamped.
func parseCheckIn(m map[string]string) (domain.CheckIn, error) {
	c := domain.CheckIn{
		ID:     m["id"],
		UserID: m["user_id"],
		PlanID: m["plan_id"],
	}

	if m["lat"] != "" || m["lon"] != "" {
		lat, err := strconv.ParseFloat(m["lat"], 64)
		if err != nil {
			return domain.CheckIn{}, fmt.Errorf("lat %q: %w", m["lat"], err)
		}
		lon, err := strconv.ParseFloat(m["lon"], 64)
		if err != nil {
			return domain.CheckIn{}, fmt.Errorf("lon %q: %w", m["lon"], err)
		}
		loc, err := geo.NewPoint(lon, lat)
		if err != nil {
			return domain.CheckIn{}, err
		}
		c.Location = loc
		c.HasLocation = true
	}

	if raw := m["created_at"]; raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.CheckIn{}, fmt.Errorf("created_at %q: %w", raw, err)
		}
		c.OccurredAt = at
	}

	return c, nil
}

// parseAttendance converts a flat hash map into a domain Attendance.
func parseAttendance(m map[string]string) (domain.Attendance, error) {
	a := domain.Attendance{
		ID:     m["id"],
		UserID: m["user_id"],
		PlanID: m["plan_id"],
		Status: m["status"],
	}
	if raw := m["joined_at"]; raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.Attendance{}, fmt.Errorf("joined_at %q: %w", raw, err)
		}
		a.JoinedAt = at
	}
	return a, nil
}
