// Package stabilize implements the time-domain smoothing logics of
// spec.md §4.E: alerting M-of-N with minimum dwell, band persistence, and
// preferred-direction hysteresis. All state here is per-engine/per-pair —
// there is no global singleton, matching spec.md §9's "Global state"
// design note.
package stabilize

// AlertWindow is the M-of-N sliding window for one (ownship, intruder)
// pair (spec.md §4.E). At most one instance exists per pair; the caller
// (pkg/daidalus/core) is responsible for keying by intruder identity.
type AlertWindow struct {
	levels    []int
	lastTime  float64
	hasData   bool
	reported  int
	raisedAt  float64
}

// Reset clears the window, as happens on ownship identity change or any
// domain-altering change (spec.md §4.E "invalidated on ownship identity
// change...").
func (w *AlertWindow) Reset() {
	*w = AlertWindow{}
}

// Update pushes a new raw alert level observed at time `now` and returns
// the smoothed, reported level. The window resets if time regresses or
// the gap since the last update exceeds hysteresisTime. A minimum-dwell
// rule holds a positive report at its previous value until persistenceTime
// has elapsed since it was first raised, even if the raw M-of-N result
// drops (spec.md §4.E, tested by §8 property 6).
func (w *AlertWindow) Update(raw int, now, hysteresisTime, persistenceTime float64, m, n int) int {
	if w.hasData && (now < w.lastTime || now-w.lastTime > hysteresisTime) {
		w.Reset()
	}

	w.levels = append(w.levels, raw)
	if len(w.levels) > n {
		w.levels = w.levels[len(w.levels)-n:]
	}
	w.lastTime = now
	w.hasData = true

	mofn := mOfN(w.levels, m)

	if w.reported > 0 && mofn < w.reported && now-w.raisedAt < persistenceTime {
		// Minimum dwell: hold the previous positive report.
		return w.reported
	}
	if mofn != w.reported {
		w.raisedAt = now
	}
	w.reported = mofn
	return w.reported
}

// mOfN returns the largest l>=1 with at least m occurrences of raw
// levels >= l within window, or 0 if none qualifies.
func mOfN(window []int, m int) int {
	maxLevel := 0
	for _, l := range window {
		if l > maxLevel {
			maxLevel = l
		}
	}
	for l := maxLevel; l >= 1; l-- {
		count := 0
		for _, v := range window {
			if v >= l {
				count++
			}
		}
		if count >= m {
			return l
		}
	}
	return 0
}
