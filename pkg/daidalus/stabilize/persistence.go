package stabilize

import "github.com/picogrid/daidalus-go/pkg/daidalus/intervalset"

// BandsPersistence re-asserts a previous corrective-region resolution
// interval when it still contains the current axis value, so that small
// numerical jitter can't yank a resolution across a band boundary
// (spec.md §4.E "Band persistence").
type BandsPersistence struct {
	have   bool
	lo, hi float64
}

// Apply intersects `none` (the corrective region's conflict-free set)
// with the previously held resolution interval, if one exists and still
// contains `currentValue`. It returns the possibly-narrowed set.
func (p *BandsPersistence) Apply(none intervalset.Set, currentValue float64, enabled bool) intervalset.Set {
	if !enabled || !p.have {
		return none
	}
	if currentValue < p.lo || currentValue > p.hi {
		return none
	}
	return none.Intersect(intervalset.Full(p.lo, p.hi))
}

// Remember stores the resolution interval surrounding currentValue found
// in `none`, for reassertion on a later tick.
func (p *BandsPersistence) Remember(none intervalset.Set, currentValue float64) {
	for _, iv := range none.Intervals() {
		if currentValue >= iv.Lo && currentValue <= iv.Hi {
			p.have = true
			p.lo, p.hi = iv.Lo, iv.Hi
			return
		}
	}
	p.have = false
}

// Reset clears any remembered resolution interval.
func (p *BandsPersistence) Reset() {
	*p = BandsPersistence{}
}
