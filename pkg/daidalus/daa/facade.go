// Package daa is the Public Façade of spec.md §4.G: a stateful,
// single-threaded API meant to be driven by a flight-computer control
// loop at 10-50 Hz (spec.md §5). Every setter marks the underlying core
// engine stale (and, for hysteresis-affecting parameter changes, clears
// hysteresis too); every getter refreshes on demand before reading.
package daa

import (
	"fmt"
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/bands"
	"github.com/picogrid/daidalus-go/pkg/daidalus/core"
	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/params"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

// Daidalus is the public, single-threaded entry point. One instance
// tracks one ownship and its traffic; instances share nothing (spec.md
// §5 "Shared resources").
type Daidalus struct {
	engine *core.Engine
	logger daalog.Logger
}

// New builds a façade over a fresh copy of the default parameter set.
func New() *Daidalus {
	return NewWithParameters(params.Default())
}

// NewWithParameters builds a façade over a caller-supplied parameter set.
func NewWithParameters(p *params.Parameters) *Daidalus {
	return &Daidalus{engine: core.NewEngine(p), logger: daalog.New()}
}

// SetLogger installs the Logger entries accumulated during refresh are
// drained into. If never called, daalog.New()'s default (stdout) is used.
func (d *Daidalus) SetLogger(l daalog.Logger) { d.logger = l }

// drainLog flushes any diagnostics accumulated by the last refresh.
func (d *Daidalus) drainLog() {
	d.engine.Sink.DrainTo(d.logger)
}

// SetOwnshipState sets the ownship's geodetic position, ground velocity,
// and alerter-table index at simulation time t (spec.md §4.F
// "set_ownship").
func (d *Daidalus) SetOwnshipState(id string, lla geom.LatLonAlt, groundVel geom.Vector3D, alerterIndex int, t float64) {
	d.engine.SetOwnship(core.AircraftState{ID: id, Pos: lla, GroundVel: groundVel, AlerterIndex: alerterIndex}, t)
	d.drainLog()
}

// AddTrafficState inserts or overwrites an intruder by name, returning
// its 1-based index (spec.md §4.F "add_traffic / set_traffic").
func (d *Daidalus) AddTrafficState(id string, lla geom.LatLonAlt, groundVel geom.Vector3D, alerterIndex int, sigma *detectors.Sigma6) (int, error) {
	a := core.AircraftState{ID: id, Pos: lla, GroundVel: groundVel, AlerterIndex: alerterIndex}
	if sigma != nil {
		a.Sigma = *sigma
		a.HasSigma = true
	}
	idx, err := d.engine.AddTraffic(a)
	d.drainLog()
	return idx, err
}

// RemoveTrafficState removes a named intruder (spec.md §4.F).
func (d *Daidalus) RemoveTrafficState(id string) error {
	err := d.engine.RemoveTraffic(id)
	d.drainLog()
	return err
}

// SetWindVelocity sets the wind vector used to derive air velocity from
// ground velocity (spec.md §3 invariant).
func (d *Daidalus) SetWindVelocity(wind geom.Vector3D) {
	d.engine.SetWind(wind)
}

// LinearProjection advances every tracked aircraft dt seconds along its
// air velocity (spec.md §4.F "linear_projection").
func (d *Daidalus) LinearProjection(dt float64) {
	d.engine.LinearProjection(dt)
}

// SetUrgencyStrategy installs the pluggable urgency strategy used to
// derive coordination epsilons (spec.md §4.F).
func (d *Daidalus) SetUrgencyStrategy(u core.UrgencyStrategy) {
	d.engine.SetUrgencyStrategy(u)
}

// Parameters returns the live parameter record. Mutating it directly
// does not mark caches stale; prefer SetParameters for changes that must
// take effect on the next refresh.
func (d *Daidalus) Parameters() *params.Parameters { return d.engine.Params }

// SetParameters replaces the whole parameter record, marking caches and
// hysteresis stale (a parameter swap can alter any axis domain).
func (d *Daidalus) SetParameters(p *params.Parameters) {
	d.engine = core.NewEngine(p)
}

// AlertLevel returns the smoothed alert level (0 = none) for a tracked
// intruder.
func (d *Daidalus) AlertLevel(id string) int {
	lvl := d.engine.AlertLevel(id)
	d.drainLog()
	return lvl
}

// TimeToCorrectiveVolume returns the seconds to the corrective region's
// detector volume for a tracked intruder, or +Inf if none.
func (d *Daidalus) TimeToCorrectiveVolume(id string) float64 {
	s, _ := d.engine.Snapshot(id)
	d.drainLog()
	return s.TimeToCorrective
}

// DTAStatus returns the DAA-Terminal-Area geofence status (spec.md §4.F).
func (d *Daidalus) DTAStatus() core.DTAStatus {
	s := d.engine.DTAStatus()
	d.drainLog()
	return s
}

// AxisResult mirrors bands.Result but is the stable, façade-exported
// shape (so callers don't reach into pkg/daidalus/bands directly).
type AxisResult = bands.Result

// DirectionBands, HorizontalSpeedBands, VerticalSpeedBands, and
// AltitudeBands expose the four axis band engines (spec.md §1 item 2).
func (d *Daidalus) DirectionBands() AxisResult         { return d.axis(bands.Dir) }
func (d *Daidalus) HorizontalSpeedBands() AxisResult    { return d.axis(bands.Hs) }
func (d *Daidalus) VerticalSpeedBands() AxisResult      { return d.axis(bands.Vs) }
func (d *Daidalus) AltitudeBands() AxisResult           { return d.axis(bands.Alt) }

func (d *Daidalus) axis(axis bands.Axis) AxisResult {
	r := d.engine.Bands(axis)
	d.drainLog()
	return r
}

// RangeIn converts a BandsRange's [Lo,Hi] from SI into the given client
// unit (spec.md §4.G: "exposes the same information in both SI internal
// units and any client-specified unit").
func RangeIn(q units.Quantity, unit string, r bands.BandsRange) (lo, hi float64, ok bool) {
	loV, ok1 := units.To(q, unit, r.Lo)
	hiV, ok2 := units.To(q, unit, r.Hi)
	return loV, hiV, ok1 && ok2
}

// RecoveryInformation returns the recovery info for an axis, or nil if
// the axis is not currently in recovery (spec.md §4.D "Recovery bands").
func (d *Daidalus) RecoveryInformation(axis bands.Axis) *bands.RecoveryInfo {
	return d.axis(axis).Recovery
}

// LastTimeToManeuver bisects on the time pivot at which a straight-line
// projection of ownship and the named intruder would no longer violate
// det (spec.md §4.D "Last time to maneuver": "bisect on a time pivot t;
// at t project both aircraft linearly; the largest t such that there is
// no violation at t is the answer"). Returns NaN if there is no current
// conflict for this intruder, -Inf if the violation never clears within
// the lookahead.
func (d *Daidalus) LastTimeToManeuver(id string, det detectors.Detector) float64 {
	s, ok := d.engine.Snapshot(id)
	if !ok {
		return math.NaN()
	}
	if math.IsInf(s.TimeToCorrective, 1) {
		return math.NaN()
	}

	lookahead := d.engine.Params.LookaheadTime
	clear := func(t float64) bool {
		conflict, ok := d.engine.ConflictAt(id, det, t)
		return ok && !conflict
	}
	if clear(0) {
		return 0
	}
	if !clear(lookahead) {
		return math.Inf(-1)
	}
	lo, hi := 0.0, lookahead
	iterations := int(math.Ceil(math.Log2(math.Max(lookahead, 1)/0.5))) + 1
	for i := 0; i < iterations; i++ {
		mid := (lo + hi) / 2
		if clear(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// String implements fmt.Stringer for readable debug dumps.
func (d *Daidalus) String() string {
	return fmt.Sprintf("daa.Daidalus{dta=%v}", d.DTAStatus())
}
