package geom

import "math"

// wgs84SemiMajorAxis and wgs84Flattening parameterize the ellipsoid used
// for the short-range ENU projection. Grounded on the ECEF conversion in
// the teacher's simulation entities (latLonAltToECEF).
const (
	wgs84SemiMajorAxis = 6378137.0
	wgs84Flattening    = 1.0 / 298.257223563
	earthRadiusMeters  = 6371000.0

	// MaxAdvisoryProjectionRangeMeters is the range beyond which the flat
	// ENU projection's error is no longer bounded by certification-grade
	// tolerances (§6: "Projection accuracy is advisory beyond a
	// configured maximum range").
	MaxAdvisoryProjectionRangeMeters = 100_000.0
)

// LatLonAlt is a geodetic position in radians/radians/meters.
type LatLonAlt struct {
	Lat, Lon, Alt float64
}

// Projection fixes a local East-North-Up Euclidean frame tangent to the
// earth at an origin lat/lon, used to project traffic positions into the
// Euclidean space the bands/detectors operate in. The frame is fixed once,
// at ownship assignment (§4.F set_ownship), and never moves thereafter.
type Projection struct {
	origin       LatLonAlt
	cosLat       float64
	sinLat       float64
	metersPerLon float64
}

// NewProjection fixes a projection frame at the given geodetic origin.
func NewProjection(origin LatLonAlt) Projection {
	return Projection{
		origin:       origin,
		cosLat:       math.Cos(origin.Lat),
		sinLat:       math.Sin(origin.Lat),
		metersPerLon: earthRadiusMeters * math.Cos(origin.Lat),
	}
}

// Project converts a geodetic position into ENU meters relative to the
// projection's origin. This is a simple equirectangular (flat-earth)
// approximation, adequate short-range per §6; callers should treat
// distances beyond MaxAdvisoryProjectionRangeMeters as advisory only.
func (p Projection) Project(pos LatLonAlt) Vector3D {
	dLat := pos.Lat - p.origin.Lat
	dLon := pos.Lon - p.origin.Lon
	return Vector3D{
		X: dLon * p.metersPerLon,
		Y: dLat * earthRadiusMeters,
		Z: pos.Alt - p.origin.Alt,
	}
}

// Unproject is the inverse of Project: given ENU meters relative to the
// projection's origin, it returns the corresponding geodetic position.
// Used by linear_projection (spec.md §4.F) to advance geodetic traffic
// along a Euclidean velocity and report the position back in lat/lon/alt.
func (p Projection) Unproject(v Vector3D) LatLonAlt {
	return LatLonAlt{
		Lat: p.origin.Lat + v.Y/earthRadiusMeters,
		Lon: p.origin.Lon + v.X/p.metersPerLon,
		Alt: p.origin.Alt + v.Z,
	}
}

// ProjectVelocity projects a geodetic-frame ground velocity (already
// expressed as East/North/Up components per second) through the
// projection. Because the frame is locally tangent and fixed, velocity
// components pass through unchanged; this exists so callers never need to
// special-case the geodetic/Euclidean distinction once ownship is set.
func (p Projection) ProjectVelocity(v Vector3D) Vector3D {
	return v
}

// OutOfAdvisoryRange reports whether pos lies beyond the range at which
// the projection's flat-earth approximation is no longer advisory-grade.
func (p Projection) OutOfAdvisoryRange(pos LatLonAlt) bool {
	v := p.Project(pos)
	return v.HorizontalNorm() > MaxAdvisoryProjectionRangeMeters
}
