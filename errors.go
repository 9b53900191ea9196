package geocore

import "errors"

// ErrNoFeed signals that no recommendation snapshot exists for the user yet.
var ErrNoFeed = errors.New("geocore: no feed generated yet")

// ErrInvalidCoordinate signals a latitude/longitude outside the valid range.
var ErrInvalidCoordinate = errors.New("geocore: invalid coordinate")
