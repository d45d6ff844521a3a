package core

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// UrgencyStrategy picks the single most-urgent intruder used to derive
// the repulsive-criteria coordination epsilons (spec.md §4.F "Urgency
// strategy (pluggable)").
type UrgencyStrategy interface {
	MostUrgent(own geom.Vector3D, ownVel geom.Vector3D, traffic []*AircraftState, proj geom.Projection, lookahead float64) (id string, ok bool)
}

// NoneStrategy always reports no urgent intruder (coordination disabled).
type NoneStrategy struct{}

func (NoneStrategy) MostUrgent(geom.Vector3D, geom.Vector3D, []*AircraftState, geom.Projection, float64) (string, bool) {
	return "", false
}

// NearestHorizontalCPA selects the intruder with the smallest horizontal
// distance at closest point of approach.
type NearestHorizontalCPA struct{}

func (NearestHorizontalCPA) MostUrgent(ownPos, ownVel geom.Vector3D, traffic []*AircraftState, proj geom.Projection, lookahead float64) (string, bool) {
	best := math.Inf(1)
	bestID := ""
	found := false
	for _, t := range traffic {
		rel := proj.Project(t.Pos).Sub(ownPos)
		relV := t.GroundVel.Sub(ownVel)
		tcpa := closestApproachTime(rel, relV, 0, lookahead)
		dist := rel.Add(relV.Scal(tcpa)).HorizontalNorm()
		if dist < best {
			best = dist
			bestID = t.ID
			found = true
		}
	}
	return bestID, found
}

// SoonestTimeToViolation selects the intruder whose CD3D cylinder
// (using the intruder's own first-level detector, if any) is penetrated
// soonest.
type SoonestTimeToViolation struct {
	DetectorFor func(t *AircraftState) (detectors.Detector, bool)
}

func (s SoonestTimeToViolation) MostUrgent(ownPos, ownVel geom.Vector3D, traffic []*AircraftState, proj geom.Projection, lookahead float64) (string, bool) {
	best := math.Inf(1)
	bestID := ""
	found := false
	for _, t := range traffic {
		det, ok := s.DetectorFor(t)
		if !ok {
			continue
		}
		rel := proj.Project(t.Pos).Sub(ownPos)
		relV := t.GroundVel.Sub(ownVel)
		var sigma *detectors.Sigma6
		if t.HasSigma {
			sigma = &t.Sigma
		}
		cd := detectors.Evaluate(det, rel, relV, sigma, 0, lookahead)
		if cd.Conflict && cd.TimeIn < best {
			best = cd.TimeIn
			bestID = t.ID
			found = true
		}
	}
	return bestID, found
}

func closestApproachTime(rel, relV geom.Vector3D, lo, hi float64) float64 {
	denom := relV.HorizontalDot(relV)
	if denom < 1e-9 {
		return lo
	}
	t := -rel.HorizontalDot(relV) / denom
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}
