package core

import "github.com/picogrid/daidalus-go/pkg/daidalus/geom"

// DTAStatus mirrors spec.md §4.F: 0 outside the geofence; +1 inside
// with special-maneuver guidance active; -1 inside with horizontal
// recovery suppressed.
type DTAStatus int

const (
	DTAOutside          DTAStatus = 0
	DTAInsideGuidance    DTAStatus = 1
	DTAInsideSuppressed  DTAStatus = -1
)

// dtaStatus computes dta_status from ownship position against the
// configured geofence cylinder (spec.md §4.F "DTA state"): ownLLA and
// center are projected through the same frame so the comparison is a
// plain Euclidean cylinder test. DTA.Logic selects which inside-state
// applies when within range; 0 means DTA logic is off entirely.
func dtaStatus(ownLLA geom.LatLonAlt, proj geom.Projection, logic int, center geom.LatLonAlt, radius, height float64) DTAStatus {
	if logic == 0 {
		return DTAOutside
	}
	own := proj.Project(ownLLA)
	c := proj.Project(center)
	rel := own.Sub(c)
	if rel.HorizontalNorm() > radius {
		return DTAOutside
	}
	if own.Z > c.Z+height {
		return DTAOutside
	}
	if logic > 0 {
		return DTAInsideGuidance
	}
	return DTAInsideSuppressed
}
