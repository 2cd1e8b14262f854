package entities

// Session carries the per-client state the discovery pipeline reads.
type Session struct {
	ClientID string `json:"client_id"`
	Language string `json:"language"`
}

// DiscoveryQuery holds the optional filters of a services request.
type DiscoveryQuery struct {
	SearchText string `json:"q,omitempty"`
	CategoryID string `json:"category,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// DiscoveryStatus tells a caller how a discovery request ended.
type DiscoveryStatus string

const (
	DiscoveryStatusOK                  DiscoveryStatus = "ok"
	DiscoveryStatusEmpty               DiscoveryStatus = "empty"
	DiscoveryStatusLocationUnavailable DiscoveryStatus = "location_unavailable"
	DiscoveryStatusFetchFailed         DiscoveryStatus = "fetch_failed"
	DiscoveryStatusSuperseded          DiscoveryStatus = "superseded"
)

// DiscoveryOutcome is the typed result of one discovery request.
type DiscoveryOutcome[T any] struct {
	Status     DiscoveryStatus `json:"status"`
	Items      []T             `json:"items"`
	Location   *Coordinate     `json:"location,omitempty"`
	Failure    string          `json:"failure,omitempty"`
	Generation uint64          `json:"generation"`
}
