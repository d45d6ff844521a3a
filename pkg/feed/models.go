package feed

import (
	"time"

	"github.com/google/uuid"
)

// GeomPoint is an Earth-Centered, Earth-Fixed (ECEF) position, mirroring
// the upstream tracking service's geometry encoding.
type GeomPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// TrackResponse is the upstream service's record for one tracked object
// (a trimmed EntityResponse: only the fields a traffic feed needs).
type TrackResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Type   string    `json:"type"`
	Status string    `json:"status"`
}

// TrackLocationResponse is one position report for a tracked object (a
// trimmed EntityLocationResponse). Velocity is optional: when absent,
// Feed derives it from consecutive reports for the same track.
type TrackLocationResponse struct {
	ID         uuid.UUID  `json:"id"`
	TrackID    uuid.UUID  `json:"entity_id"`
	Position   *GeomPoint `json:"position"`
	Velocity   *GeomPoint `json:"velocity,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Track      *TrackResponse `json:"entity,omitempty"`
}

// Paging mirrors the upstream service's cursor pagination envelope.
type Paging struct {
	NextCursor string `json:"next_cursor,omitempty"`
}

// TrackLocationPaginatedResponse is a page of location reports.
type TrackLocationPaginatedResponse struct {
	Results    []TrackLocationResponse `json:"results"`
	TotalCount int                     `json:"total_count"`
	Paging     Paging                  `json:"paging,omitempty"`
}

// ProximityFilter restricts a search to locations within Radius meters of
// an ECEF point.
type ProximityFilter struct {
	X, Y, Z float64 `json:"x"`
	Radius  float64 `json:"radius"`
}

// SearchLocationFilters mirrors the upstream SearchLocationFilters used to
// poll for traffic updates since a given instant.
type SearchLocationFilters struct {
	ProximityFilter *ProximityFilter `json:"proximity_filter,omitempty"`
	CreatedAfter    time.Time        `json:"created_after,omitempty"`
	TrackIDs        []uuid.UUID      `json:"entity_ids,omitempty"`
}

// SearchTrackLocationsRequest is the request body for polling the
// upstream tracking service for new position reports.
type SearchTrackLocationsRequest struct {
	Filters         *SearchLocationFilters `json:"filters,omitempty"`
	HydrateEntities bool                   `json:"hydrate_entities,omitempty"`
	LatestOnly      bool                   `json:"latest_only,omitempty"`
}
