package bands

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// KinematicProfile holds the turn/acceleration rates used to build a
// ramped (as opposed to instantaneous) candidate trajectory (spec.md
// §3 "Kinematic profile", §4.C).
type KinematicProfile struct {
	TurnRate   float64 // rad/s, > 0
	HorizAccel float64 // m/s^2, > 0
	VertAccel  float64 // m/s^2, > 0
	VertRate   float64 // m/s, > 0 — cruise climb/descent rate for Alt
}

// StandardRateTurn returns the turn rate (rad/s) equivalent to a given
// bank angle at the given true airspeed, via the standard-rate-turn
// relation tan(bank) = v*omega/g (spec.md §3: "setting either zeros the
// other").
func StandardRateTurn(bankRad, trueAirspeed float64) float64 {
	const g = 9.80665
	if trueAirspeed < 1e-6 {
		return 0
	}
	return g * math.Tan(bankRad) / trueAirspeed
}

// BankFromTurnRate is the inverse of StandardRateTurn.
func BankFromTurnRate(turnRate, trueAirspeed float64) float64 {
	const g = 9.80665
	return math.Atan2(turnRate*trueAirspeed, g)
}

// OwnState is the ownship kinematic state at the start of a candidate
// maneuver: position, track, horizontal speed, and vertical speed.
type OwnState struct {
	Pos     geom.Vector3D
	Track   float64 // radians, clockwise from North
	HSpeed  float64 // m/s, >= 0
	VSpeed  float64 // m/s, signed
}

// Velocity returns the 3-D ground-velocity vector for this state.
func (s OwnState) Velocity() geom.Vector3D {
	return geom.Mkv(s.Track, s.HSpeed, s.VSpeed)
}

// sample is one instant of a simulated trajectory.
type sample struct {
	t   float64
	pos geom.Vector3D
	vel geom.Vector3D
}

// simulateOwnship forward-integrates the ownship's candidate trajectory
// for axis `axis` reaching target value `target` (SI units: radians for
// Dir, m/s for Hs/Vs, meters for Alt), from `start` at t=0, over
// [0, tMax] at step dt. When instantaneous is true the axis value jumps
// to target at t=0 (kinematic profile degenerates to a single phase);
// otherwise the profile ramps at the rates in kin.
//
// The integration is explicit (forward-Euler-equivalent for the ramped
// phase) — adequate for deciding conflict-free/conflict status, which is
// what every caller in this package needs; exact closed-form arcs are not
// required because the comparison against the cylinder only needs
// position to hold steady under the monotone-shrink property (spec.md
// §4.A), not bit-for-bit trajectory fidelity.
func simulateOwnship(axis Axis, start OwnState, target float64, instantaneous bool, kin KinematicProfile, tMax, dt float64) []sample {
	n := int(math.Ceil(tMax/dt)) + 1
	out := make([]sample, 0, n+1)

	pos := start.Pos
	track := start.Track
	hspeed := start.HSpeed
	vspeed := start.VSpeed
	altTarget := start.Pos.Z + target // only meaningful for Alt

	emit := func(t float64) {
		vel := geom.Mkv(track, hspeed, vspeed)
		out = append(out, sample{t: t, pos: pos, vel: vel})
	}

	if instantaneous {
		switch axis {
		case Dir:
			track = geom.Mod2Pi(start.Track + target)
		case Hs:
			hspeed = math.Max(0, target)
		case Vs:
			vspeed = target
		case Alt:
			// Immediate climb/descend at the configured vertical rate
			// until level (instantaneous axis still respects VertRate
			// since an altitude "step" has no natural instant form).
			if kin.VertRate > 0 {
				if altTarget > start.Pos.Z {
					vspeed = kin.VertRate
				} else if altTarget < start.Pos.Z {
					vspeed = -kin.VertRate
				}
			}
		}
	}

	emit(0)
	t := 0.0
	reachedAltCruise := false
	for t < tMax {
		step := dt
		if t+step > tMax {
			step = tMax - t
		}
		if step <= 0 {
			break
		}

		if !instantaneous {
			switch axis {
			case Dir:
				delta := geom.TurnTo(track, geom.Mod2Pi(start.Track+target))
				maxStep := kin.TurnRate * step
				if math.Abs(delta) <= maxStep {
					track = geom.Mod2Pi(start.Track + target)
				} else if delta > 0 {
					track = geom.Mod2Pi(track + maxStep)
				} else {
					track = geom.Mod2Pi(track - maxStep)
				}
			case Hs:
				delta := target - hspeed
				maxStep := kin.HorizAccel * step
				if math.Abs(delta) <= maxStep {
					hspeed = target
				} else if delta > 0 {
					hspeed += maxStep
				} else {
					hspeed -= maxStep
				}
				if hspeed < 0 {
					hspeed = 0
				}
			case Vs:
				delta := target - vspeed
				maxStep := kin.VertAccel * step
				if math.Abs(delta) <= maxStep {
					vspeed = target
				} else if delta > 0 {
					vspeed += maxStep
				} else {
					vspeed -= maxStep
				}
			case Alt:
				remaining := altTarget - pos.Z
				if math.Abs(remaining) < 1e-6 {
					vspeed = 0
					reachedAltCruise = true
				} else if !reachedAltCruise {
					cruise := kin.VertRate
					if remaining < 0 {
						cruise = -cruise
					}
					delta := cruise - vspeed
					maxStep := kin.VertAccel * step
					if math.Abs(delta) <= maxStep {
						vspeed = cruise
						reachedAltCruise = true
					} else if delta > 0 {
						vspeed += maxStep
					} else {
						vspeed -= maxStep
					}
					// Don't overshoot the target altitude this tick.
					if (remaining > 0 && vspeed*step > remaining) || (remaining < 0 && vspeed*step < remaining) {
						vspeed = remaining / step
					}
				}
			}
		} else if axis == Alt {
			remaining := altTarget - pos.Z
			if math.Abs(remaining) < 1e-6 {
				vspeed = 0
			} else if (remaining > 0 && vspeed*step > remaining) || (remaining < 0 && vspeed*step < remaining) {
				vspeed = remaining / step
			}
		}

		vel := geom.Mkv(track, hspeed, vspeed)
		pos = pos.Add(vel.Scal(step))
		t += step
		emit(t)
	}

	return out
}
