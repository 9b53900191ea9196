package domain

import "github.com/spontime/geocore/internal/domain/geo"

// Scope is a named category of locatable entities clustered independently.
type Scope string

const (
	// ScopePlaces groups user-created places.
	ScopePlaces Scope = "places"
	// ScopeVenues groups partner-owned venues.
	ScopeVenues Scope = "venues"
	// ScopePlans groups plan locations.
	ScopePlans Scope = "plans"
)

// IsValid checks if the scope is one of the known categories.
func (s Scope) IsValid() bool {
	return s == ScopePlaces || s == ScopeVenues || s == ScopePlans
}

// LocatedEntity is a read-only snapshot of any geolocated record owned by the
// persistence layer. Identity is opaque.
type LocatedEntity struct {
	ID       string    `json:"id"`
	Scope    Scope     `json:"scope"`
	Location geo.Point `json:"location"`
}
