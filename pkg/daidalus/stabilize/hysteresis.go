package stabilize

import "math"

// Direction is a left/right or up/down escape choice.
type Direction int

const (
	Left Direction = iota
	Right
	None // no conflict-free escape on either side
)

// DirectionHysteresis holds the (last_actual, last_preferred,
// time_of_last_flip) triple of spec.md §4.E "Preferred-direction
// hysteresis".
type DirectionHysteresis struct {
	have           bool
	lastActual     Direction
	lastPreferred  Direction
	lastFlipTime   float64
}

// Update computes this tick's preferred direction given the raw "actual"
// choice (closer escape distance) and the two escape distances (may be
// +Inf), following spec.md §4.E and tested by §8 property 5: the
// preferred direction only flips when the escape-distance delta exceeds
// maxDeltaResolution or persistenceTime has elapsed since the last flip.
func (h *DirectionHysteresis) Update(actual Direction, leftDist, rightDist, now, maxDeltaResolution, persistenceTime float64) Direction {
	if !h.have {
		h.have = true
		h.lastActual = actual
		h.lastPreferred = actual
		h.lastFlipTime = now
		return actual
	}

	preferred := h.lastPreferred
	if actual != h.lastPreferred {
		delta := math.Abs(leftDist - rightDist)
		if math.IsInf(delta, 0) {
			delta = math.MaxFloat64
		}
		elapsed := now - h.lastFlipTime
		if delta > maxDeltaResolution || elapsed > persistenceTime {
			preferred = actual
			h.lastFlipTime = now
		}
	}

	h.lastActual = actual
	h.lastPreferred = preferred
	return preferred
}

// Reset clears hysteresis state (ownship identity change, time
// regression, or axis-domain-altering change per spec.md §4.E).
func (h *DirectionHysteresis) Reset() {
	*h = DirectionHysteresis{}
}
