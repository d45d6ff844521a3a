package core

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/alerting"
	"github.com/picogrid/daidalus-go/pkg/daidalus/bands"
	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/params"
	"github.com/picogrid/daidalus-go/pkg/daidalus/stabilize"
)

// IntruderSnapshot is one intruder's alerting result from a refresh
// (spec.md §6 "Outputs": "per intruder: alert level, time-to-corrective-
// volume, last-time-to-maneuver per axis").
type IntruderSnapshot struct {
	ID               string
	AlertLevel       int
	TimeToCorrective float64 // seconds; +Inf if no corrective-level conflict
}

// Engine is the Core Orchestrator of spec.md §4.F.
type Engine struct {
	proj        geom.Projection
	haveOwnship bool
	ownship     AircraftState
	ownshipTime float64

	traffic []*AircraftState
	wind    geom.Vector3D

	Params *params.Parameters

	axisEngines map[bands.Axis]*bands.Engine
	alertWindows map[string]*stabilize.AlertWindow

	urgency UrgencyStrategy

	stale bool
	now   float64

	dtaStatus DTAStatus

	snapshots map[string]IntruderSnapshot

	Sink *daalog.Sink
}

// NewEngine builds an orchestrator over the given parameter set.
func NewEngine(p *params.Parameters) *Engine {
	e := &Engine{
		Params:       p,
		axisEngines:  map[bands.Axis]*bands.Engine{},
		alertWindows: map[string]*stabilize.AlertWindow{},
		urgency:      NoneStrategy{},
		stale:        true,
		snapshots:    map[string]IntruderSnapshot{},
		Sink:         daalog.NewSink(256),
	}
	for _, ax := range []bands.Axis{bands.Dir, bands.Hs, bands.Vs, bands.Alt} {
		e.axisEngines[ax] = bands.NewEngine(ax)
	}
	return e
}

// SetUrgencyStrategy swaps the pluggable urgency strategy (spec.md §4.F).
func (e *Engine) SetUrgencyStrategy(u UrgencyStrategy) {
	if u == nil {
		u = NoneStrategy{}
	}
	e.urgency = u
}

// SetOwnship assigns the ownship aircraft (spec.md §4.F "set_ownship").
// Hysteresis is cleared when the identifier changes, time regresses, or
// the gap since the last ownship update exceeds the hysteresis time;
// otherwise hysteresis state is kept and only caches go stale.
func (e *Engine) SetOwnship(a AircraftState, t float64) {
	identityChanged := !e.haveOwnship || e.ownship.ID != a.ID
	timeRegressed := e.haveOwnship && t < e.ownshipTime
	gapTooLarge := e.haveOwnship && (t-e.ownshipTime) > e.Params.Hyst.HysteresisTime

	if identityChanged || timeRegressed || gapTooLarge {
		e.invalidateHysteresis()
	}
	if !e.haveOwnship || identityChanged {
		e.proj = geom.NewProjection(a.Pos)
	}
	e.ownship = a
	e.ownshipTime = t
	e.now = t
	e.haveOwnship = true
	e.stale = true
}

func (e *Engine) invalidateHysteresis() {
	for _, eng := range e.axisEngines {
		eng.InvalidateHysteresis()
	}
	e.alertWindows = map[string]*stabilize.AlertWindow{}
}

// AddTraffic inserts a new intruder, returning its 1-based index
// (spec.md §4.F "add_traffic / set_traffic").
func (e *Engine) AddTraffic(a AircraftState) (int, error) {
	if e.haveOwnship && a.ID == e.ownship.ID {
		return 0, ErrOwnshipNameCollision{ID: a.ID}
	}
	if i := indexOf(e.traffic, a.ID); i >= 0 {
		cp := a
		e.traffic[i] = &cp
		e.stale = true
		return i + 1, nil
	}
	cp := a
	e.traffic = append(e.traffic, &cp)
	e.stale = true
	return len(e.traffic), nil
}

// SetTraffic is an alias of AddTraffic (spec.md groups them: "insert or
// overwrite by name").
func (e *Engine) SetTraffic(a AircraftState) (int, error) { return e.AddTraffic(a) }

// RemoveTraffic removes the named intruder; later aircraft's indices
// decrement (spec.md §4.F "remove_traffic").
func (e *Engine) RemoveTraffic(id string) error {
	i := indexOf(e.traffic, id)
	if i < 0 {
		return ErrUnknownTraffic{ID: id}
	}
	e.traffic = append(e.traffic[:i], e.traffic[i+1:]...)
	delete(e.alertWindows, id)
	delete(e.snapshots, id)
	e.stale = true
	return nil
}

// SetWind updates the wind vector, staling caches.
func (e *Engine) SetWind(w geom.Vector3D) {
	e.wind = w
	e.stale = true
}

// LinearProjection advances every tracked aircraft along its air
// velocity by dt seconds (spec.md §4.F "linear_projection").
func (e *Engine) LinearProjection(dt float64) {
	if e.haveOwnship {
		e.advance(&e.ownship, dt)
	}
	for _, t := range e.traffic {
		e.advance(t, dt)
	}
	e.now += dt
	e.stale = true
}

func (e *Engine) advance(a *AircraftState, dt float64) {
	air := a.AirVelocity(e.wind)
	enu := e.proj.Project(a.Pos).Add(air.Scal(dt))
	a.Pos = e.proj.Unproject(enu)
}

// Refresh recomputes alert levels and band engines if the engine is
// stale (spec.md §4.F "refresh").
func (e *Engine) Refresh() {
	if !e.stale {
		return
	}
	if !e.haveOwnship {
		e.stale = false
		return
	}

	dta := e.Params.DTA
	e.dtaStatus = dtaStatus(e.ownship.Pos, e.proj, dta.Logic, geom.LatLonAlt{Lat: dta.LatRad, Lon: dta.LonRad}, dta.RadiusMeters, dta.HeightMeters)

	ownPos := e.proj.Project(e.ownship.Pos)
	ownAirVel := e.ownship.AirVelocity(e.wind)

	for _, t := range e.traffic {
		e.refreshIntruder(t, ownPos, ownAirVel)
	}

	e.stale = false
}

func (e *Engine) refreshIntruder(t *AircraftState, ownPos, ownAirVel geom.Vector3D) {
	alerterIdx := t.AlerterIndex
	if e.Params.OwnshipCentricAlerting {
		alerterIdx = e.ownship.AlerterIndex
	}
	if e.dtaStatus != DTAOutside && e.Params.DTA.AlerterIndex > 0 {
		alerterIdx = e.Params.DTA.AlerterIndex
	}
	alerter, ok := e.Params.Alerters.AlerterAt(alerterIdx)

	rel := e.proj.Project(t.Pos).Sub(ownPos)
	relV := t.AirVelocity(e.wind).Sub(ownAirVel)
	var sigma *detectors.Sigma6
	if t.HasSigma {
		sigma = &t.Sigma
	}

	raw := 0
	timeToCorrective := math.Inf(1)
	if ok {
		for i := alerter.MostSevereLevel(); i >= 1; i-- {
			lvl, _ := alerter.LevelAt(i)
			cd := detectors.Evaluate(lvl.Detector, rel, relV, sigma, 0, e.Params.LookaheadTime)
			if cd.Conflict && cd.TimeIn <= lvl.TAlert {
				raw = i
				break
			}
		}
		if cl := alerter.LevelForRegion(e.Params.CorrectiveRegion); cl > 0 {
			lvl, _ := alerter.LevelAt(cl)
			cd := detectors.Evaluate(lvl.Detector, rel, relV, sigma, 0, e.Params.LookaheadTime)
			if cd.Conflict {
				timeToCorrective = cd.TimeIn
			}
		}
	}

	w, exists := e.alertWindows[t.ID]
	if !exists {
		w = &stabilize.AlertWindow{}
		e.alertWindows[t.ID] = w
	}
	reported := w.Update(raw, e.now, e.Params.Hyst.HysteresisTime, e.Params.Hyst.PersistenceTime, e.Params.Hyst.MofN_M, e.Params.Hyst.MofN_N)

	e.snapshots[t.ID] = IntruderSnapshot{ID: t.ID, AlertLevel: reported, TimeToCorrective: timeToCorrective}

	if !ok {
		e.Sink.Push(daalog.Entry{Level: daalog.WarnLevel, Time: e.now, Message: "intruder has no valid alerter", Fields: map[string]interface{}{"id": t.ID, "alerter_index": alerterIdx}})
	}
}

// AlertLevel returns the smoothed alert level for an intruder, or 0 if
// unknown (refreshes first if stale).
func (e *Engine) AlertLevel(id string) int {
	e.Refresh()
	return e.snapshots[id].AlertLevel
}

// Snapshot returns the full alerting snapshot for an intruder.
func (e *Engine) Snapshot(id string) (IntruderSnapshot, bool) {
	e.Refresh()
	s, ok := e.snapshots[id]
	return s, ok
}

// ConflictAt linearly projects ownship and the named intruder forward
// by t seconds from their current state and evaluates det against the
// resulting relative state (spec.md §4.D "Last time to maneuver": "at t,
// project both aircraft linearly"). ok is false if id is untracked.
func (e *Engine) ConflictAt(id string, det detectors.Detector, t float64) (conflict bool, ok bool) {
	i := indexOf(e.traffic, id)
	if i < 0 || !e.haveOwnship {
		return false, false
	}
	intr := e.traffic[i]

	ownAir := e.ownship.AirVelocity(e.wind)
	ownPos := e.proj.Project(e.ownship.Pos).Add(ownAir.Scal(t))

	intrAir := intr.AirVelocity(e.wind)
	intrPos := e.proj.Project(intr.Pos).Add(intrAir.Scal(t))

	rel := intrPos.Sub(ownPos)
	relV := intrAir.Sub(ownAir)
	var sigma *detectors.Sigma6
	if intr.HasSigma {
		sigma = &intr.Sigma
	}
	cd := detectors.Evaluate(det, rel, relV, sigma, 0, 0)
	return cd.Conflict, true
}

// DTAStatus returns the current DAA-Terminal-Area geofence status.
func (e *Engine) DTAStatus() DTAStatus {
	e.Refresh()
	return e.dtaStatus
}

// Bands recomputes and returns this axis's band result (spec.md §4.D via
// §4.F "per-axis refresh").
func (e *Engine) Bands(axis bands.Axis) bands.Result {
	e.Refresh()
	if !e.haveOwnship {
		return bands.Result{}
	}

	ownPos := e.proj.Project(e.ownship.Pos)
	ownAirVel := e.ownship.AirVelocity(e.wind)
	own := bands.OwnState{Pos: ownPos, Track: ownAirVel.Track(), HSpeed: ownAirVel.HorizontalNorm(), VSpeed: ownAirVel.Z}

	bnd := e.axisBounds(axis)
	val := e.axisValue(axis, own)
	lo, hi := bnd.Window(val)
	fullWindow := bnd.Modular && hi-lo >= axis.Period()-1e-9
	circular := axis.Circular(fullWindow)

	epsH, epsV := e.coordinationEpsilons(ownPos, ownAirVel)

	intruders := make([]bands.IntruderContext, 0, len(e.traffic))
	for _, t := range e.traffic {
		alerterIdx := t.AlerterIndex
		if e.Params.OwnshipCentricAlerting {
			alerterIdx = e.ownship.AlerterIndex
		}
		alerter, ok := e.Params.Alerters.AlerterAt(alerterIdx)
		if !ok {
			continue
		}
		ic := bands.IntruderContext{
			ID:        t.ID,
			Pos:       e.proj.Project(t.Pos),
			Vel:       t.AirVelocity(e.wind),
			Detectors: map[alerting.Region]detectors.Detector{},
		}
		if t.HasSigma {
			s := t.Sigma
			ic.Sigma = &s
		}
		for _, r := range []alerting.Region{alerting.RegionNear, alerting.RegionMid, alerting.RegionFar} {
			if li := alerter.LevelForRegion(r); li > 0 {
				lvl, _ := alerter.LevelAt(li)
				ic.Detectors[r] = lvl.Detector
			}
		}
		intruders = append(intruders, ic)
	}

	eng := e.axisEngines[axis]
	return eng.Refresh(bands.RefreshParams{
		Axis:         axis,
		Own:          own,
		CurrentValue: val,
		MinVal:       lo,
		MaxVal:       hi,
		Circular:     circular,
		Period:       axis.Period(),
		Step:         bnd.Step,
		TauK:         1, // kinematic by default; instantaneous callers can special-case via façade
		Kin:          e.Params.Kinematic,
		Intruders:    intruders,
		CorrectiveRegion: e.Params.CorrectiveRegion,
		Recovery: bands.RecoveryParams{
			DRec: e.Params.Recovery.MinHorizontalRecovery, HRec: e.Params.Recovery.MinVerticalRecovery,
			NMACh: e.Params.Recovery.NMACHorizontal, NMACv: e.Params.Recovery.NMACVertical,
			CAEnabled: e.Params.Recovery.CAEnabled, CAFactor: e.Params.Recovery.CAFactor,
			StabilityDwell: e.Params.Recovery.StabilityTime, TLook: e.Params.LookaheadTime,
		},
		BandsPersistenceEnabled: e.Params.Hyst.BandsPersistence,
		MaxDeltaResolution:      e.Params.Hyst.MaxDeltaResolution[axis],
		PersistenceTime:         e.Params.Hyst.PersistenceTime,
		Now:                     e.now,
		EpsH:                    epsH,
		EpsV:                    epsV,
	})
}

func (e *Engine) axisBounds(axis bands.Axis) params.AxisBounds {
	switch axis {
	case bands.Dir:
		return e.Params.Dir
	case bands.Hs:
		return e.Params.Hs
	case bands.Vs:
		return e.Params.Vs
	default:
		return e.Params.Alt
	}
}

func (e *Engine) axisValue(axis bands.Axis, own bands.OwnState) float64 {
	switch axis {
	case bands.Dir:
		return own.Track
	case bands.Hs:
		return own.HSpeed
	case bands.Vs:
		return own.VSpeed
	default:
		return own.Pos.Z
	}
}

// coordinationEpsilons derives EpsH/EpsV from the urgency strategy and
// the conflict-repulsive-criteria flag (spec.md §4.C: "The engine
// derives eps_h, eps_v from relative geometry + urgency strategy").
func (e *Engine) coordinationEpsilons(ownPos, ownVel geom.Vector3D) (int, int) {
	if !e.Params.ConflictRepulsiveCrit {
		return 0, 0
	}
	id, ok := e.urgency.MostUrgent(ownPos, ownVel, e.traffic, e.proj, e.Params.LookaheadTime)
	if !ok {
		return 0, 0
	}
	i := indexOf(e.traffic, id)
	if i < 0 {
		return 0, 0
	}
	t := e.traffic[i]
	rel := e.proj.Project(t.Pos).Sub(ownPos)
	epsH := 1
	if rel.HorizontalDot(ownVel) > 0 {
		epsH = -1
	}
	epsV := 1
	if rel.Z > 0 {
		epsV = -1
	}
	return epsH, epsV
}
