package entities

// Coordinate is a WGS84 point in signed decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSource tells where a resolved coordinate came from.
type LocationSource string

const (
	LocationSourceCache  LocationSource = "cache"
	LocationSourceDevice LocationSource = "device"
)

// LocationFailureReason is why the device could not report a position.
type LocationFailureReason string

const (
	LocationPermissionDenied    LocationFailureReason = "permission_denied"
	LocationPositionUnavailable LocationFailureReason = "position_unavailable"
	LocationTimeout             LocationFailureReason = "timeout"
	LocationUnsupported         LocationFailureReason = "unsupported"
)

// ParseLocationFailureReason maps a client supplied reason to a known value.
// Unknown values are reported as position_unavailable.
func ParseLocationFailureReason(s string) LocationFailureReason {
	switch r := LocationFailureReason(s); r {
	case LocationPermissionDenied, LocationPositionUnavailable, LocationTimeout, LocationUnsupported:
		return r
	default:
		return LocationPositionUnavailable
	}
}

// ResolvedLocation is the outcome of a location read: a coordinate, or none with a reason.
type ResolvedLocation struct {
	Coordinate *Coordinate           `json:"coordinate,omitempty"`
	Source     LocationSource        `json:"source,omitempty"`
	Failure    LocationFailureReason `json:"failure,omitempty"`
}

// Available reports whether a coordinate was obtained.
func (r ResolvedLocation) Available() bool {
	return r.Coordinate != nil
}
