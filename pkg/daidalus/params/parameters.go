// Package params holds the engine's configuration record: axis bounds,
// kinematic profile, recovery/CA thresholds, hysteresis/persistence
// windows, SUM z-scores, logic switches, DTA geofence, and the alerter
// table, plus the `key = value [unit]` file format used to load and save
// it (spec.md §3 "Parameters", §6 "Configuration file").
package params

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/alerting"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

// AxisBounds is the min/max/step plus optional relative window of one
// maneuver axis (spec.md §3 "Axis bounds & steps"). All fields are SI.
type AxisBounds struct {
	Min, Max, Step float64
	// Below/Above implement the relative-window rule: when both are 0,
	// the absolute [Min,Max] window is used; when both are positive, the
	// window is [val-Below, val+Above]; -1 on either side substitutes the
	// absolute bound on that side.
	Below, Above float64
	// Modular marks an axis whose domain wraps at Max back to Min (only
	// Dir, over [0, 2*pi)). A modular axis's relative window is never
	// clamped to [Min,Max]: it stays a continuous interval centered on
	// val, which the band sweep and kinematic projection both already
	// evaluate correctly via trig identities regardless of the interval's
	// absolute offset (spec.md §4.D: modular axes wrap, never truncate).
	Modular bool
}

// Window resolves this axis's effective [lo,hi] bounds around the
// current value, per spec.md §3's relative-window rule. For a modular
// axis the result is left unclamped (may extend past Min/Max); callers
// fold it back across the seam at the end of the sweep.
func (a AxisBounds) Window(val float64) (lo, hi float64) {
	if a.Below == 0 && a.Above == 0 {
		return a.Min, a.Max
	}
	lo = a.Min
	if a.Below != -1 {
		lo = val - a.Below
	}
	hi = a.Max
	if a.Above != -1 {
		hi = val + a.Above
	}
	if a.Modular {
		return lo, hi
	}
	if lo < a.Min {
		lo = a.Min
	}
	if hi > a.Max {
		hi = a.Max
	}
	return lo, hi
}

// KinematicProfile is the turn-rate/acceleration ramp configuration
// (spec.md §3 "Kinematic profile"). TurnRate and BankAngle are kept
// mutually derived: setting one through SetTurnRate/SetBankAngle zeroes
// the other's independence, matching "setting either zeros the other".
type KinematicProfile struct {
	TurnRate        float64 // rad/s
	HorizontalAccel float64 // m/s^2
	VerticalAccel   float64 // m/s^2
	VerticalRate    float64 // m/s
}

// StandardRateBank returns the bank angle that produces the configured
// turn rate at the given true airspeed (standard-rate-turn formula).
func (k KinematicProfile) StandardRateBank(trueAirspeed float64) float64 {
	const g = 9.80665
	if trueAirspeed <= 0 {
		return 0
	}
	return math.Atan(k.TurnRate * trueAirspeed / g)
}

// SetBankAngle derives TurnRate from a bank angle at the given true
// airspeed (spec.md §3: "one implies the other via standard-rate turn
// formula; setting either zeros the other").
func (k *KinematicProfile) SetBankAngle(bankRad, trueAirspeed float64) {
	const g = 9.80665
	k.TurnRate = g * math.Tan(bankRad) / maxf(trueAirspeed, 1e-6)
}

// RecoveryParams is the recovery/collision-avoidance group (spec.md §3
// "Recovery & collision-avoidance").
type RecoveryParams struct {
	MinHorizontalRecovery float64 // D_rec, meters
	MinVerticalRecovery   float64 // H_rec, meters
	NMACHorizontal        float64 // meters
	NMACVertical          float64 // meters
	StabilityTime         float64 // seconds
	CAEnabled             bool
	CAFactor              float64 // in (0,1]
}

// HysteresisParams is the hysteresis/persistence/M-of-N group (spec.md
// §3 "Hysteresis/persistence").
type HysteresisParams struct {
	HysteresisTime     float64 // seconds
	PersistenceTime    float64 // seconds
	BandsPersistence   bool
	PersistenceWindow  [4]float64 // per axis, seconds
	MofN_M, MofN_N     int
	MaxDeltaResolution [4]float64 // per axis, SI units
}

// SUMParams is the sensor-uncertainty-mitigation z-score group (spec.md
// §3 "SUM z-scores").
type SUMParams struct {
	HorizontalPositionZ       float64
	HorizontalVelocityZMin    float64
	HorizontalVelocityZMax    float64
	HorizontalVelocityZDistance float64 // meters
	VerticalPositionZ         float64
	VerticalSpeedZ            float64
}

// DTAParams is the DAA-Terminal-Area geofence configuration (spec.md §3
// "Logic switches": "DTA logic mode {-1,0,+1} plus DTA geofence").
type DTAParams struct {
	Logic        int // -1, 0, +1
	LatRad       float64
	LonRad       float64
	RadiusMeters float64
	HeightMeters float64
	AlerterIndex int // 1-based; 0 = none
}

// Parameters is the full configuration record (spec.md §3 "Parameters").
type Parameters struct {
	LookaheadTime float64 // T_look, seconds

	Dir AxisBounds // direction/track, radians
	Hs  AxisBounds // horizontal speed, m/s
	Vs  AxisBounds // vertical speed, m/s
	Alt AxisBounds // altitude, meters

	Kinematic KinematicProfile
	Recovery  RecoveryParams
	Hyst      HysteresisParams
	SUM       SUMParams

	OwnshipCentricAlerting bool
	CorrectiveRegion       alerting.Region
	ConflictRepulsiveCrit  bool
	RecoveryRepulsiveCrit  bool

	DTA DTAParams

	Alerters *alerting.Table
}

// Default returns the stock parameter set, loosely modeled on the
// well-clear "DO-365" defaults referenced by spec.md's glossary (values
// chosen for internal consistency, not certified minima).
func Default() *Parameters {
	p := &Parameters{
		LookaheadTime: 180,
		Dir: AxisBounds{Min: 0, Max: 2 * math.Pi, Step: deg(1), Below: deg(180), Above: deg(180), Modular: true},
		Hs:  AxisBounds{Min: kt(0), Max: kt(700), Step: kt(1), Below: kt(500), Above: kt(500)},
		Vs:  AxisBounds{Min: fpm(-5000), Max: fpm(5000), Step: fpm(1), Below: fpm(2000), Above: fpm(2000)},
		Alt: AxisBounds{Min: 0, Max: ft(60000), Step: ft(1), Below: ft(3000), Above: ft(3000)},
		Kinematic: KinematicProfile{
			TurnRate:        deg(3),
			HorizontalAccel: 2.0,
			VerticalAccel:   2.0,
			VerticalRate:    fpm(2000),
		},
		Recovery: RecoveryParams{
			MinHorizontalRecovery: nmi(0.66),
			MinVerticalRecovery:   ft(450),
			NMACHorizontal:        nmi(0.2),
			NMACVertical:          ft(100),
			StabilityTime:         20,
			CAEnabled:             true,
			CAFactor:              0.8,
		},
		Hyst: HysteresisParams{
			HysteresisTime:   5,
			PersistenceTime:  10,
			BandsPersistence: false,
			MofN_M:           2,
			MofN_N:           5,
		},
		SUM: SUMParams{
			HorizontalPositionZ:         1.645,
			HorizontalVelocityZMin:      0.75,
			HorizontalVelocityZMax:      1.5,
			HorizontalVelocityZDistance: nmi(4),
			VerticalPositionZ:           1.645,
			VerticalSpeedZ:              1.645,
		},
		OwnshipCentricAlerting: true,
		CorrectiveRegion:       alerting.RegionMid,
		ConflictRepulsiveCrit:  true,
		RecoveryRepulsiveCrit:  true,
		Alerters:               alerting.NewTable(),
	}
	_, _ = p.Alerters.Add(defaultAlerter())
	return p
}

// defaultAlerter is the stock "default" alerter every fresh Parameters
// carries: three WCV_TAUMOD levels (FAR, MID/corrective, NEAR/warning)
// sized off the recovery and NMAC cylinders above, so an engine built
// from Default() detects conflicts without the caller having to load a
// configuration file first.
func defaultAlerter() alerting.Alerter {
	return alerting.Alerter{
		Name: "default",
		Levels: []alerting.Level{
			{
				Detector: detectorKind(detectors.TauMod, nmi(1.0), ft(700), 35),
				TAlert:   55, TEarly: 75,
				Region: alerting.RegionFar,
			},
			{
				Detector: detectorKind(detectors.TauMod, nmi(0.66), ft(450), 35),
				TAlert:   55, TEarly: 75,
				Region: alerting.RegionMid,
			},
			{
				Detector: detectorKind(detectors.TauMod, nmi(0.2), ft(100), 0),
				TAlert:   25, TEarly: 55,
				Region: alerting.RegionNear,
			},
		},
	}
}

func detectorKind(kind detectors.Kind, d, h, tauStar float64) detectors.Detector {
	return detectors.Detector{Kind: kind, D: d, H: h, TauStar: tauStar}
}

func deg(d float64) float64 { v, _ := units.From(units.Angle, "deg", d); return v }
func kt(v float64) float64  { r, _ := units.From(units.Speed, "knot", v); return r }
func fpm(v float64) float64 { r, _ := units.From(units.Speed, "fpm", v); return r }
func ft(v float64) float64  { r, _ := units.From(units.Distance, "ft", v); return r }
func nmi(v float64) float64 { r, _ := units.From(units.Distance, "nmi", v); return r }

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
