// Package feed adapts an upstream entity-tracking service into traffic
// updates for a running engine instance. It is an optional, separately
// instantiated collaborator that sits entirely outside the deterministic
// core: the core never imports this package, and nothing here runs on
// the engine's refresh path.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// Sink receives converted traffic updates. *daa.Daidalus satisfies this.
type Sink interface {
	AddTrafficState(id string, lla geom.LatLonAlt, groundVel geom.Vector3D, alerterIndex int, sigma *detectors.Sigma6) (int, error)
}

// Feed polls Client for new track locations and pushes them into a Sink
// as traffic updates, deriving velocity by finite difference when the
// upstream report omits it.
type Feed struct {
	client       *Client
	sink         Sink
	alerterIndex int
	log          daalog.Logger

	history map[string]trackSample
}

type trackSample struct {
	x, y, z float64
	at      time.Time
}

// Config configures a Feed.
type Config struct {
	Client       *Client
	Sink         Sink
	AlerterIndex int
	Logger       daalog.Logger
}

// New builds a Feed. AlerterIndex is applied to every converted track;
// callers needing per-track alerters should not use Feed and should call
// Sink.AddTrafficState directly instead.
func New(cfg Config) *Feed {
	log := cfg.Logger
	if log == nil {
		log = daalog.New()
	}
	return &Feed{
		client:       cfg.Client,
		sink:         cfg.Sink,
		alerterIndex: cfg.AlerterIndex,
		log:          log,
		history:      make(map[string]trackSample),
	}
}

// Poll fetches every track location recorded since 'since' and pushes a
// converted traffic update into the Sink for each. It returns the
// timestamp callers should pass as 'since' on the next call.
func (f *Feed) Poll(ctx context.Context, since time.Time) (time.Time, error) {
	resp, err := f.client.SearchTrackLocations(ctx, SearchTrackLocationsRequest{
		Filters: &SearchLocationFilters{
			CreatedAfter: since,
		},
		HydrateEntities: true,
		LatestOnly:      true,
	})
	if err != nil {
		return since, fmt.Errorf("poll track locations: %w", err)
	}

	next := since
	for _, loc := range resp.Results {
		if loc.CreatedAt.After(next) {
			next = loc.CreatedAt
		}
		id, lla, vel, err := f.convert(loc)
		if err != nil {
			f.log.Warn(fmt.Sprintf("feed: skipping track %s: %v", loc.TrackID, err))
			continue
		}
		if _, err := f.sink.AddTrafficState(id, lla, vel, f.alerterIndex, nil); err != nil {
			f.log.Warn(fmt.Sprintf("feed: add traffic %s: %v", id, err))
		}
	}
	return next, nil
}

// convert turns one upstream location report into a traffic-state update,
// deriving velocity from the previous report for the same track when the
// upstream service did not supply one directly.
func (f *Feed) convert(loc TrackLocationResponse) (id string, lla geom.LatLonAlt, vel geom.Vector3D, err error) {
	id = loc.TrackID.String()
	if loc.Track != nil && loc.Track.Name != "" {
		id = loc.Track.Name
	}
	if loc.Position == nil || len(loc.Position.Coordinates) != 3 {
		return "", geom.LatLonAlt{}, geom.Vector3D{}, fmt.Errorf("missing or malformed position")
	}
	x, y, z := loc.Position.Coordinates[0], loc.Position.Coordinates[1], loc.Position.Coordinates[2]
	lat, lon, alt := ecefToLatLonAlt(x, y, z)
	lla = geom.LatLonAlt{Lat: lat, Lon: lon, Alt: alt}

	at := loc.CreatedAt
	if loc.RecordedAt != nil {
		at = *loc.RecordedAt
	}

	switch {
	case loc.Velocity != nil && len(loc.Velocity.Coordinates) == 3:
		e, n, u := ecefVelocityToENU(lat, lon, loc.Velocity.Coordinates[0], loc.Velocity.Coordinates[1], loc.Velocity.Coordinates[2])
		vel = geom.Vector3D{X: e, Y: n, Z: u}
	default:
		vel = f.derivedVelocity(loc.TrackID.String(), x, y, z, lat, lon, at)
	}
	f.history[loc.TrackID.String()] = trackSample{x: x, y: y, z: z, at: at}
	return id, lla, vel, nil
}

// derivedVelocity finite-differences ECEF position against the previous
// sample for the same track, then rotates the result into local ENU.
func (f *Feed) derivedVelocity(key string, x, y, z, lat, lon float64, at time.Time) geom.Vector3D {
	prev, ok := f.history[key]
	if !ok {
		return geom.Vector3D{}
	}
	dt := at.Sub(prev.at).Seconds()
	if dt <= 0 {
		return geom.Vector3D{}
	}
	vx, vy, vz := (x-prev.x)/dt, (y-prev.y)/dt, (z-prev.z)/dt
	e, n, u := ecefVelocityToENU(lat, lon, vx, vy, vz)
	return geom.Vector3D{X: e, Y: n, Z: u}
}
