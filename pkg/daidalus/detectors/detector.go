// Package detectors implements the loss-of-well-clear volumes of
// spec.md §4.A: given a relative trajectory between two aircraft over a
// time window, decide whether (and when) they enter/exit a configured
// well-clear cylinder. Detectors are a tagged union (CD3D / TauMod / SUM)
// rather than a virtual-call hierarchy, per the "Deep inheritance" design
// note in spec.md §9 — dispatch happens on the Kind field, never through
// an interface vtable, so the hot loop in pkg/daidalus/bands never pays
// for indirection.
package detectors

import "math"

// Kind tags which concrete conflict-volume semantics a Detector uses.
type Kind int

const (
	CD3D Kind = iota
	TauMod
	SUM
)

// String renders a Kind using the wire names spec.md §6 gives as an
// example of a per-alerter detector key ("a_detector_1 = WCV_TAUMOD").
func (k Kind) String() string {
	switch k {
	case CD3D:
		return "CD3D"
	case TauMod:
		return "WCV_TAUMOD"
	case SUM:
		return "WCV_SUM"
	default:
		return "UNKNOWN"
	}
}

// ParseKind parses the wire name produced by String, defaulting to CD3D
// (and ok=false) for anything unrecognized.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "CD3D":
		return CD3D, true
	case "WCV_TAUMOD", "TAUMOD":
		return TauMod, true
	case "WCV_SUM", "SUM":
		return SUM, true
	default:
		return CD3D, false
	}
}

// Sigma6 is the six-component sensor uncertainty block carried per
// traffic state (spec.md §3): three horizontal position std-devs
// (EW, NS, EN cross term), vertical position, three horizontal velocity
// std-devs, and vertical velocity.
type Sigma6 struct {
	SEW, SNS, SEN float64 // horizontal position, meters
	SZ            float64 // vertical position, meters
	SVEW, SVNS, SVEN float64 // horizontal velocity, meters/second
	SVZ               float64 // vertical velocity, meters/second
}

// Detector is a configured well-clear volume. Exactly the fields relevant
// to Kind are meaningful; the zero value of the others is ignored.
type Detector struct {
	Kind Kind

	// CD3D / TauMod / SUM: cylinder half-dimensions.
	D, H float64

	// TauMod: modified-tau threshold, seconds.
	TauStar float64

	// SUM: z-scores and scaling distance (spec.md §3 "SUM z-scores").
	ZHorPos       float64
	ZVerPos       float64
	ZVerSpeed     float64
	ZHorVelMin    float64
	ZHorVelMax    float64
	ZHorVelScaleDistance float64
}

// ConflictData is the result of evaluating a detector against a relative
// state over [B,T] (spec.md §4.A).
type ConflictData struct {
	TimeIn, TimeOut float64 // seconds, within [B,T]; TimeOut may be +Inf
	TimeToCPA       float64
	DistanceAtCPA   float64
	Conflict        bool
}

// NoConflict is the canonical "never violates" result.
var NoConflict = ConflictData{TimeIn: math.Inf(1), TimeOut: math.Inf(1), TimeToCPA: math.NaN(), DistanceAtCPA: math.NaN()}

// Shrink returns a copy of d with its cylinder half-dimensions scaled by
// factor (0,1]. Used by the recovery-cylinder search (spec.md §4.D step
// 3): shrinking D,H toward NMAC produces a strict subset conflict region
// by the monotonicity property (§4.A "All volumes are monotone under
// shrinking").
func (d Detector) Shrink(factor float64) Detector {
	out := d
	out.D *= factor
	out.H *= factor
	return out
}

// WithCylinder returns a copy of d with its cylinder half-dimensions
// replaced outright (used to swap in the NMAC or recovery cylinder without
// touching tau/SUM parameters).
func (d Detector) WithCylinder(dist, height float64) Detector {
	out := d
	out.D = dist
	out.H = height
	return out
}
