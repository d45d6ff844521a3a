package bands

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/alerting"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/intervalset"
	"github.com/picogrid/daidalus-go/pkg/daidalus/stabilize"
)

// BandsRange is one coloured output interval of a Real-Band Engine
// (spec.md §3).
type BandsRange struct {
	Lo, Hi float64
	Region alerting.Region
}

// IntruderContext is everything the band engine needs about one intruder
// aircraft for one refresh: its relative kinematic state, SUM sigma
// block, and the per-region detector this intruder should be evaluated
// under (resolved from its alerter by the caller). A region absent from
// Detectors means this intruder does not contribute to that region's
// none-set (no configured level reaches that severity).
type IntruderContext struct {
	ID        string
	Pos, Vel  geom.Vector3D
	Sigma     *detectors.Sigma6
	Detectors map[alerting.Region]detectors.Detector
}

// RecoveryParams bundles the recovery/CA configuration of spec.md §3.
type RecoveryParams struct {
	DRec, HRec     float64 // minimum recovery horizontal/vertical distances
	NMACh, NMACv   float64
	CAEnabled      bool
	CAFactor       float64 // in (0,1]
	StabilityDwell float64 // seconds
	TLook          float64 // lookahead, seconds
}

// RecoveryInfo is the recovery/CA output of spec.md §3 "Outputs".
type RecoveryInfo struct {
	TimeToRecovery float64 // seconds; -Inf if even NMAC is infeasible
	HDist, VDist   float64 // achievable separation at recovery
	NFactor        int     // number of CA cylinder shrinkages
}

// RefreshParams is the full input to one axis refresh (spec.md §4.D).
type RefreshParams struct {
	Axis Axis

	Own          OwnState
	CurrentValue float64
	MinVal       float64
	MaxVal       float64
	Circular     bool
	Period       float64 // modular period (2*pi for Dir), 0 if not modular
	Step         float64

	TauK float64
	Kin  KinematicProfile

	Intruders        []IntruderContext
	CorrectiveRegion alerting.Region

	Recovery RecoveryParams

	BandsPersistenceEnabled bool
	MaxDeltaResolution      float64
	PersistenceTime         float64

	Now        float64
	EpsH, EpsV int
}

// Result is the per-axis output of one refresh.
type Result struct {
	Ranges             []BandsRange
	LeftOrDown         Resolution
	RightOrUp          Resolution
	PreferredDirection stabilize.Direction
	Recovery           *RecoveryInfo
}

// Resolution is one directional escape (spec.md §4.D "Preferred direction
// & resolutions").
type Resolution struct {
	Value float64
	Valid bool // false means the escape is at +/-Inf (no boundary found)
}

// Engine is one axis's Real-Band Engine instance, owning its own
// hysteresis/persistence state across ticks (spec.md §9: "Hysteresis/
// cache state lives inside the engine").
type Engine struct {
	axis        Axis
	persistence stabilize.BandsPersistence
	direction   stabilize.DirectionHysteresis
}

// NewEngine constructs the per-axis engine.
func NewEngine(axis Axis) *Engine {
	return &Engine{axis: axis}
}

// InvalidateHysteresis clears all cross-tick smoothing state (spec.md
// §4.E: "invalidated on ownship identity change, time regression, or any
// change that alters the axis domain").
func (e *Engine) InvalidateHysteresis() {
	e.persistence.Reset()
	e.direction.Reset()
}

var regionSeverityOrder = []alerting.Region{alerting.RegionNear, alerting.RegionMid, alerting.RegionFar}

// Refresh recomputes this axis's bands for one tick.
func (e *Engine) Refresh(p RefreshParams) Result {
	mino, maxo := integerBounds(p.MinVal, p.MaxVal, p.CurrentValue, p.Step)

	nominal := make(map[alerting.Region]intervalset.Set, 3)
	for _, r := range regionSeverityOrder {
		nominal[r] = e.regionNoneSet(p, r, mino, maxo, nil)
	}

	correctiveNone := nominal[p.CorrectiveRegion]
	inRecovery := correctiveNone.Empty() || !correctiveNone.Contains(p.CurrentValue)

	active := nominal
	var recInfo *RecoveryInfo
	if inRecovery {
		rec, recoveryNone := e.computeRecovery(p, mino, maxo)
		recInfo = rec
		if recoveryNone != nil {
			active = e.recolor(p, recoveryNone)
		}
	}

	if p.BandsPersistenceEnabled {
		held := e.persistence.Apply(active[p.CorrectiveRegion], p.CurrentValue, true)
		active[p.CorrectiveRegion] = held
	}
	e.persistence.Remember(active[p.CorrectiveRegion], p.CurrentValue)

	ranges := colorize(active, p.MinVal, p.MaxVal, inRecovery, p.CorrectiveRegion)

	leftRes, rightRes := resolutions(active[p.CorrectiveRegion], p.CurrentValue, p.MinVal, p.MaxVal)

	actualDir := preferredRaw(leftRes, rightRes, p.CurrentValue)
	leftDist := escapeDistance(leftRes, p.CurrentValue, p.Period, true)
	rightDist := escapeDistance(rightRes, p.CurrentValue, p.Period, false)
	preferred := e.direction.Update(actualDir, leftDist, rightDist, p.Now, p.MaxDeltaResolution, p.PersistenceTime)

	if p.Period > 0 {
		ranges = wrapRanges(ranges, p.Period)
		leftRes.Value = wrapValue(leftRes.Value, p.Period)
		rightRes.Value = wrapValue(rightRes.Value, p.Period)
	}

	return Result{
		Ranges:             ranges,
		LeftOrDown:         leftRes,
		RightOrUp:          rightRes,
		PreferredDirection: preferred,
		Recovery:           recInfo,
	}
}

// wrapValue folds a continuous (possibly negative or >=period) axis value
// back into its canonical [0,period) representation.
func wrapValue(v, period float64) float64 {
	v = math.Mod(v, period)
	if v < 0 {
		v += period
	}
	return v
}

// wrapRanges folds a sequence of coloured ranges computed in the
// continuous, unwrapped coordinate a modular axis's window is built in
// back into the canonical [0,period) domain, splitting any range that
// straddles a period boundary into its two wrapped pieces — a Dir band
// crossing the 0/2*pi seam is represented as two adjoining intervals
// rather than truncated (spec.md §4.D).
func wrapRanges(ranges []BandsRange, period float64) []BandsRange {
	var out []BandsRange
	for _, r := range ranges {
		lo, hi := r.Lo, r.Hi
		for lo < hi {
			wlo := wrapValue(lo, period)
			consumed := math.Min(hi-lo, period-wlo)
			out = append(out, BandsRange{Lo: wlo, Hi: wlo + consumed, Region: r.Region})
			lo += consumed
		}
	}
	sortRanges(out)
	return mergeAdjacentRanges(out)
}

func sortRanges(rs []BandsRange) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].Lo > rs[j].Lo; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
}

func mergeAdjacentRanges(rs []BandsRange) []BandsRange {
	var out []BandsRange
	for _, r := range rs {
		if len(out) > 0 && out[len(out)-1].Region == r.Region && math.Abs(out[len(out)-1].Hi-r.Lo) < 1e-9 {
			out[len(out)-1].Hi = r.Hi
			continue
		}
		out = append(out, r)
	}
	return out
}

// integerBounds computes the candidate integer-step range covering
// [minVal,maxVal] around currentValue.
func integerBounds(minVal, maxVal, currentValue, step float64) (int, int) {
	mino := int(math.Ceil((minVal - currentValue) / step - 1e-9))
	maxo := int(math.Floor((maxVal-currentValue)/step + 1e-9))
	return mino, maxo
}

// regionNoneSet composes the conflict-free set for one region across all
// applicable intruders. cylinderOverride, if non-nil, replaces each
// intruder's configured cylinder (used by the recovery re-colour pass).
func (e *Engine) regionNoneSet(p RefreshParams, region alerting.Region, mino, maxo int, cylinderOverride *[2]float64) intervalset.Set {
	none := intervalset.Full(valueOf(p, mino), valueOf(p, maxo))
	for _, in := range p.Intruders {
		det, ok := in.Detectors[region]
		if !ok {
			continue
		}
		if cylinderOverride != nil {
			det = det.WithCylinder(cylinderOverride[0], cylinderOverride[1])
		}
		spans := Sweep(SweepParams{
			Axis:         p.Axis,
			Own:          p.Own,
			CurrentValue: p.CurrentValue,
			Step:         p.Step,
			Mino:         mino,
			Maxo:         maxo,
			TauK:         p.TauK,
			Kin:          p.Kin,
			Det:          det,
			Intruder:     Intruder{Pos: in.Pos, Vel: in.Vel, Sigma: in.Sigma},
			B:            0,
			T:            p.Recovery.TLook,
			EpsH:         p.EpsH,
			EpsV:         p.EpsV,
		})
		intruderNone := spansToSet(p, spans)
		none = none.Intersect(intruderNone)
	}
	return none
}

func valueOf(p RefreshParams, k int) float64 {
	return p.CurrentValue + float64(k)*p.Step
}

func spansToSet(p RefreshParams, spans []IntSpan) intervalset.Set {
	var s intervalset.Set
	for _, sp := range spans {
		s = s.Union(intervalset.Of(intervalset.Interval{Lo: valueOf(p, sp.Lo), Hi: valueOf(p, sp.Hi)}))
	}
	return s
}

// computeRecovery bisects on a recovery-time pivot (spec.md §4.D steps
// 1-3), shrinking the recovery cylinder toward NMAC when necessary.
func (e *Engine) computeRecovery(p RefreshParams, mino, maxo int) (*RecoveryInfo, *map[alerting.Region]intervalset.Set) {
	rp := p.Recovery
	cylD, cylH := rp.DRec, rp.HRec
	nfactor := 0

	for {
		pivot, ok := bisectPivot(p, mino, maxo, cylD, cylH)
		if ok {
			none := e.composeWithCylinder(p, mino, maxo, cylD, cylH, pivot)
			info := &RecoveryInfo{
				TimeToRecovery: pivot + rp.StabilityDwell,
				HDist:          cylD,
				VDist:          cylH,
				NFactor:        nfactor,
			}
			return info, &none
		}
		if cylD <= rp.NMACh*(1+1e-6) && cylH <= rp.NMACv*(1+1e-6) {
			if !rp.CAEnabled {
				return &RecoveryInfo{TimeToRecovery: math.Inf(-1)}, nil
			}
			return &RecoveryInfo{TimeToRecovery: math.Inf(-1), NFactor: nfactor}, nil
		}
		cylD = math.Max(rp.NMACh, cylD*rp.CAFactor)
		cylH = math.Max(rp.NMACv, cylH*rp.CAFactor)
		nfactor++
		if !rp.CAEnabled {
			return &RecoveryInfo{TimeToRecovery: math.Inf(-1)}, nil
		}
	}
}

// bisectPivot finds the smallest pivot in [0,TLook] such that the
// corrective-region none-set (built with cylinder (cylD,cylH) on
// [pivot,TLook], and NMAC on [0,pivot] if CA enabled) is non-empty.
// Bounded to ceil(log2(TLook/0.5)) iterations per spec.md §4.D/§5.
func bisectPivot(p RefreshParams, mino, maxo int, cylD, cylH float64) (float64, bool) {
	rp := p.Recovery
	test := func(pivot float64) bool {
		none := recoveryNoneAt(p, mino, maxo, cylD, cylH, pivot)
		return !none.Empty()
	}
	if !test(rp.TLook) {
		return 0, false
	}
	if test(0) {
		return 0, true
	}
	lo, hi := 0.0, rp.TLook
	iterations := int(math.Ceil(math.Log2(math.Max(rp.TLook, 1)/0.5))) + 1
	for i := 0; i < iterations; i++ {
		mid := (lo + hi) / 2
		if test(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, true
}

func recoveryNoneAt(p RefreshParams, mino, maxo int, cylD, cylH, pivot float64) intervalset.Set {
	none := intervalset.Full(valueOf(p, mino), valueOf(p, maxo))
	for _, in := range p.Intruders {
		det, ok := in.Detectors[p.CorrectiveRegion]
		if !ok {
			continue
		}
		primary := det.WithCylinder(cylD, cylH)
		var recDet *detectors.Detector
		if p.Recovery.CAEnabled && pivot > 0 {
			nmac := det.WithCylinder(p.Recovery.NMACh, p.Recovery.NMACv)
			recDet = &nmac
		}
		spans := Sweep(SweepParams{
			Axis: p.Axis, Own: p.Own, CurrentValue: p.CurrentValue, Step: p.Step,
			Mino: mino, Maxo: maxo, TauK: p.TauK, Kin: p.Kin,
			Det: primary, Rec: recDet,
			Intruder: Intruder{Pos: in.Pos, Vel: in.Vel, Sigma: in.Sigma},
			B:        pivot, T: p.Recovery.TLook,
			EpsH: p.EpsH, EpsV: p.EpsV,
		})
		none = none.Intersect(spansToSet(p, spans))
	}
	return none
}

// composeWithCylinder rebuilds every region's none-set substituting the
// recovery cylinder, so less-severe regions get "graded colours" against
// it too (spec.md §4.D step 4).
func (e *Engine) composeWithCylinder(p RefreshParams, mino, maxo int, cylD, cylH, pivot float64) map[alerting.Region]intervalset.Set {
	out := make(map[alerting.Region]intervalset.Set, 3)
	override := [2]float64{cylD, cylH}
	for _, r := range regionSeverityOrder {
		if r.Severity() >= p.CorrectiveRegion.Severity() {
			out[r] = recoveryNoneAt(p, mino, maxo, cylD, cylH, pivot)
		} else {
			out[r] = e.regionNoneSet(p, r, mino, maxo, &override)
		}
	}
	return out
}

func (e *Engine) recolor(p RefreshParams, recoveryNone *map[alerting.Region]intervalset.Set) map[alerting.Region]intervalset.Set {
	return *recoveryNone
}

// colorize builds the final coloured-range sequence (spec.md §4.D
// "Coloured ranges"): severity increases inward; adjacent equal-colour
// segments merge.
func colorize(none map[alerting.Region]intervalset.Set, minVal, maxVal float64, inRecovery bool, corrective alerting.Region) []BandsRange {
	cuts := map[float64]bool{minVal: true, maxVal: true}
	for _, r := range regionSeverityOrder {
		for _, iv := range none[r].Intervals() {
			cuts[clamp(iv.Lo, minVal, maxVal)] = true
			cuts[clamp(iv.Hi, minVal, maxVal)] = true
		}
	}
	points := make([]float64, 0, len(cuts))
	for c := range cuts {
		points = append(points, c)
	}
	sortFloats(points)

	var ranges []BandsRange
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]
		if hi-lo < 1e-9 {
			continue
		}
		mid := (lo + hi) / 2
		region := regionAt(none, mid, inRecovery, corrective)
		if len(ranges) > 0 && ranges[len(ranges)-1].Region == region {
			ranges[len(ranges)-1].Hi = hi
			continue
		}
		ranges = append(ranges, BandsRange{Lo: lo, Hi: hi, Region: region})
	}
	return ranges
}

func regionAt(none map[alerting.Region]intervalset.Set, v float64, inRecovery bool, corrective alerting.Region) alerting.Region {
	for _, r := range regionSeverityOrder {
		if !none[r].Contains(v) {
			if inRecovery && r.Severity() >= corrective.Severity() {
				return alerting.RegionRecovery
			}
			return r
		}
	}
	return alerting.RegionNone
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// resolutions returns the left/down and right/up escape boundaries of the
// corrective-region conflict interval containing currentValue (spec.md
// §4.D "Preferred direction & resolutions").
func resolutions(correctiveNone intervalset.Set, currentValue, minVal, maxVal float64) (left, right Resolution) {
	if correctiveNone.Contains(currentValue) {
		return Resolution{Value: currentValue, Valid: true}, Resolution{Value: currentValue, Valid: true}
	}
	// Find the free interval endpoints nearest to currentValue on each side.
	leftBound, rightBound := math.Inf(-1), math.Inf(1)
	for _, iv := range correctiveNone.Intervals() {
		if iv.Hi <= currentValue && iv.Hi > leftBound {
			leftBound = iv.Hi
		}
		if iv.Lo >= currentValue && iv.Lo < rightBound {
			rightBound = iv.Lo
		}
	}
	left = Resolution{Value: leftBound, Valid: !math.IsInf(leftBound, -1)}
	right = Resolution{Value: rightBound, Valid: !math.IsInf(rightBound, 1)}
	return left, right
}

func preferredRaw(left, right Resolution, currentValue float64) stabilize.Direction {
	if !left.Valid && !right.Valid {
		return stabilize.None
	}
	if !left.Valid {
		return stabilize.Right
	}
	if !right.Valid {
		return stabilize.Left
	}
	if currentValue-left.Value <= right.Value-currentValue {
		return stabilize.Left
	}
	return stabilize.Right
}

func escapeDistance(r Resolution, currentValue, period float64, isLeft bool) float64 {
	if !r.Valid {
		return math.Inf(1)
	}
	d := r.Value - currentValue
	if isLeft {
		d = currentValue - r.Value
	}
	if period > 0 {
		d = modularDistance(d, period)
	}
	return d
}

// modularDistance folds a signed linear distance into the shorter of the
// two ways around a period (spec.md §4.D "closer of the two modular
// distances").
func modularDistance(d, period float64) float64 {
	d = math.Mod(d, period)
	if d < 0 {
		d += period
	}
	if d > period/2 {
		d = period - d
	}
	return d
}
