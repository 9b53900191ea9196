package entity

import (
	"fmt"
	"strconv"

	"github.com/spontime/geocore/internal/domain"
	"github.com/spontime/geocore/internal/domain/geo"
)

// parseEntity converts a flat hash map into a domain LocatedEntity.
// Coordinates are validated, never clamped.
func parseEntity(scope domain.Scope, m map[string]string) (domain.LocatedEntity, error) {
	lat, err := strconv.ParseFloat(m["lat"], 64)
	if err != nil {
		return domain.LocatedEntity{}, fmt.Errorf("lat %q: %w", m["lat"], err)
	}
	lon, err := strconv.ParseFloat(m["lon"], 64)
	if err != nil {
		return domain.LocatedEntity{}, fmt.Errorf("lon %q: %w", m["lon"], err)
	}
	p, err := geo.NewPoint(lon, lat)
	if err != nil {
		return domain.LocatedEntity{}, err
	}
	return domain.LocatedEntity{
		ID:       m["id"],
		Scope:    scope,
		Location: p,
	}, nil
}
