package bands

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// IntSpan is a maximal contiguous run of conflict-free integer steps
// [Lo,Hi], inclusive (spec.md §4.C).
type IntSpan struct {
	Lo, Hi int
}

// Intruder is the linearly-projected relative state of one traffic
// aircraft used as input to a sweep (spec.md §4.C: "ownship and intruder
// trajectories" — the intruder side is always a linear projection; only
// the ownship candidate is kinematic/instantaneous).
type Intruder struct {
	Pos   geom.Vector3D
	Vel   geom.Vector3D
	Sigma *detectors.Sigma6
}

// SweepParams bundles everything needed to evaluate one axis's candidate
// family against one intruder (spec.md §4.C contract).
type SweepParams struct {
	Axis Axis

	Own          OwnState
	CurrentValue float64 // axis value at k=0, SI units
	Step         float64 // SI units per integer step, > 0
	Mino, Maxo   int

	TauK float64 // 0 => instantaneous, >0 => kinematic ramp seconds
	Kin  KinematicProfile

	Det detectors.Detector  // primary conflict volume
	Rec *detectors.Detector // optional recovery-horizon volume

	Intruder Intruder

	B, T float64 // lookahead window

	// EpsH/EpsV implement the repulsive-criteria coordination epsilons
	// (spec.md §4.C): when non-zero, candidates whose step sign opposes
	// the coordinated side are rejected outright. EpsH applies to Dir
	// and Hs; EpsV applies to Vs and Alt. +1 rejects positive steps,
	// -1 rejects negative steps, 0 disables the filter.
	EpsH, EpsV int
}

// maxSamplesPerCandidate bounds the per-candidate simulation cost so a
// sweep's total cost stays within the O(axes*regions*intruders*steps*T/tau)
// budget spec.md §5 calls for.
const maxSamplesPerCandidate = 120

// Sweep evaluates every integer step k in [Mino,Maxo] and returns the
// conflict-free steps as maximal contiguous spans.
func Sweep(p SweepParams) []IntSpan {
	var free []int
	for k := p.Mino; k <= p.Maxo; k++ {
		if rejectedByCoordination(p, k) {
			continue
		}
		if candidateFree(p, k) {
			free = append(free, k)
		}
	}
	return toSpans(free)
}

func rejectedByCoordination(p SweepParams, k int) bool {
	var eps int
	switch p.Axis {
	case Dir, Hs:
		eps = p.EpsH
	case Vs, Alt:
		eps = p.EpsV
	}
	if eps > 0 && k > 0 {
		return true
	}
	if eps < 0 && k < 0 {
		return true
	}
	return false
}

// candidateFree reports whether integer step k is free of conflict with
// this intruder over [B,T] under Det, and free of recovery-volume
// conflict over [0,B] under Rec if present.
func candidateFree(p SweepParams, k int) bool {
	target := float64(k) * p.Step
	instantaneous := p.TauK <= 0

	tMax := p.T
	dt := tau(p, tMax)

	samples := simulateOwnship(p.Axis, p.Own, target, instantaneous, p.Kin, tMax, dt)

	if !freeAgainst(samples, p.Intruder, p.Det, p.B, p.T) {
		return false
	}
	if p.Rec != nil && p.B > 0 {
		if !freeAgainst(samples, p.Intruder, *p.Rec, 0, p.B) {
			return false
		}
	}
	return true
}

func tau(p SweepParams, tMax float64) float64 {
	window := tMax
	if window <= 0 {
		window = 1
	}
	dt := window / maxSamplesPerCandidate
	if dt < 0.1 {
		dt = 0.1
	}
	return dt
}

// freeAgainst reports whether none of the samples within [lo,hi] violate
// det against the given intruder's linear projection.
func freeAgainst(samples []sample, intr Intruder, det detectors.Detector, lo, hi float64) bool {
	for _, s := range samples {
		if s.t < lo-1e-9 || s.t > hi+1e-9 {
			continue
		}
		if violatesAt(s, intr, det) {
			return false
		}
	}
	return true
}

func violatesAt(s sample, intr Intruder, det detectors.Detector) bool {
	rel := s.pos.Sub(intr.Pos)
	relV := s.vel.Sub(intr.Vel)

	D, H := det.D, det.H
	if det.Kind == detectors.SUM && intr.Sigma != nil {
		D, H = inflatedCylinder(det, intr, rel)
	}

	horDist := rel.HorizontalNorm()
	vertDist := math.Abs(rel.Z)
	if horDist >= D || vertDist >= H {
		return false
	}
	if det.Kind != detectors.TauMod {
		return true
	}
	return tauModAt(rel, relV, D) < det.TauStar
}

func inflatedCylinder(det detectors.Detector, intr Intruder, rel geom.Vector3D) (float64, float64) {
	sigma := intr.Sigma
	horRange := rel.HorizontalNorm()
	zv := det.ZHorVelMax
	if det.ZHorVelScaleDistance > 0 {
		ratio := horRange / det.ZHorVelScaleDistance
		ratio = math.Max(0, math.Min(1, ratio))
		zv = det.ZHorVelMin + ratio*(det.ZHorVelMax-det.ZHorVelMin)
	}
	horPosBuf := det.ZHorPos * math.Sqrt(sigma.SEW*sigma.SEW+sigma.SNS*sigma.SNS+2*sigma.SEN)
	horVelBuf := zv * math.Sqrt(sigma.SVEW*sigma.SVEW+sigma.SVNS*sigma.SVNS+2*sigma.SVEN)
	verPosBuf := det.ZVerPos * sigma.SZ
	verVelBuf := det.ZVerSpeed * sigma.SVZ
	return det.D + horPosBuf + horVelBuf, det.H + verPosBuf + verVelBuf
}

// tauModAt computes the modified-tau value at an instant given relative
// horizontal position/velocity and cylinder radius D: time until the
// cylinder boundary would be crossed at the current closing rate, or
// +Inf while not closing.
func tauModAt(rel, relV geom.Vector3D, D float64) float64 {
	sh2 := rel.X*rel.X + rel.Y*rel.Y
	closure := rel.X*relV.X + rel.Y*relV.Y
	if closure >= 0 {
		return math.Inf(1)
	}
	return -(sh2 - D*D) / closure
}

// toSpans collapses a sorted slice of free integers into maximal
// contiguous [lo,hi] spans.
func toSpans(free []int) []IntSpan {
	if len(free) == 0 {
		return nil
	}
	var spans []IntSpan
	lo, hi := free[0], free[0]
	for _, k := range free[1:] {
		if k == hi+1 {
			hi = k
			continue
		}
		spans = append(spans, IntSpan{lo, hi})
		lo, hi = k, k
	}
	spans = append(spans, IntSpan{lo, hi})
	return spans
}
