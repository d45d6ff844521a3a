// Package alerting implements the Alerter Table of spec.md §4.B: a
// configured, ordered list of alert levels, each binding a well-clear
// detector volume and a pair of horizon times. Lookup is by 1-based
// index or by name, mirroring the teacher's simulation.Registry
// (cmd/.../pkg/simulation/registry.go) — a name-keyed factory table with
// an ordered, stable index space.
package alerting

import (
	"fmt"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
)

// Region is the severity tag carried by a BandsRange / alert level.
type Region int

const (
	RegionNone Region = iota
	RegionFar
	RegionMid
	RegionNear
	RegionRecovery
	RegionUnknown
)

func (r Region) String() string {
	switch r {
	case RegionNone:
		return "NONE"
	case RegionFar:
		return "FAR"
	case RegionMid:
		return "MID"
	case RegionNear:
		return "NEAR"
	case RegionRecovery:
		return "RECOVERY"
	default:
		return "UNKNOWN"
	}
}

// Severity returns a total order over conflict regions (not RECOVERY),
// used to decide "equal to or more severe than" comparisons (§4.B, §3's
// corrective-region definition). Higher is more severe.
func (r Region) Severity() int {
	switch r {
	case RegionNone:
		return 0
	case RegionFar:
		return 1
	case RegionMid:
		return 2
	case RegionNear:
		return 3
	default:
		return -1
	}
}

// Level is one alert level within an Alerter: a detector volume plus
// alerting/early-alerting horizons and a region tag.
type Level struct {
	Detector  detectors.Detector
	TAlert    float64 // alerting time, seconds
	TEarly    float64 // early-alerting time, seconds; TEarly >= TAlert
	Region    Region
}

// Alerter is a named, ordered list of increasingly severe Levels.
// Severity increases with index (1-based in the public API, per §4.B).
type Alerter struct {
	Name   string
	Levels []Level
}

// LevelAt returns the 1-based level (1..len(Levels)), or the zero Level
// and false if i is out of range (OutOfRange per §7).
func (a Alerter) LevelAt(i int) (Level, bool) {
	if i < 1 || i > len(a.Levels) {
		return Level{}, false
	}
	return a.Levels[i-1], true
}

// MostSevereLevel returns the largest valid 1-based level index, or 0 if
// the alerter has no levels.
func (a Alerter) MostSevereLevel() int {
	return len(a.Levels)
}

// LevelForRegion returns the first (least severe) 1-based level whose
// region is at least as severe as r, or 0 if none qualifies (§4.B).
func (a Alerter) LevelForRegion(r Region) int {
	for i, lvl := range a.Levels {
		if lvl.Region.Severity() >= r.Severity() {
			return i + 1
		}
	}
	return 0
}

// HasCorrectiveLevel reports whether the alerter declares at least one
// level at or more severe than corrective — required for validity (§4.B).
func (a Alerter) HasCorrectiveLevel(corrective Region) bool {
	return a.LevelForRegion(corrective) != 0
}

// Table is the ordered, named collection of Alerters referenced by
// 1-based index from TrafficState.AlerterIndex (0 means none, per §3).
// Unguarded by a mutex: the engine is single-threaded end to end (§5, §9
// "no mutexes"), so Table is only ever touched from the one call stack
// that owns a Daidalus instance.
type Table struct {
	alerters []Alerter
	byName   map[string]int // 1-based index
}

// NewTable builds an empty alerter table.
func NewTable() *Table {
	return &Table{byName: make(map[string]int)}
}

// Add appends an alerter, returning its 1-based index. Errors if the name
// is already registered (Misconfigured per §7).
func (t *Table) Add(a Alerter) (int, error) {
	if _, exists := t.byName[a.Name]; exists {
		return 0, fmt.Errorf("alerting: alerter %q already registered", a.Name)
	}
	t.alerters = append(t.alerters, a)
	idx := len(t.alerters)
	t.byName[a.Name] = idx
	return idx, nil
}

// AlerterAt returns the 1-based alerter, or false if i is 0/out of range.
func (t *Table) AlerterAt(i int) (Alerter, bool) {
	if i < 1 || i > len(t.alerters) {
		return Alerter{}, false
	}
	return t.alerters[i-1], true
}

// IndexOf returns the 1-based index of the named alerter, or 0 if absent.
func (t *Table) IndexOf(name string) int {
	return t.byName[name]
}

// Len returns the number of configured alerters.
func (t *Table) Len() int {
	return len(t.alerters)
}

// Validate reports every alerter in the table that lacks a corrective
// level (§4.B validity rule), as a slice of alerter names. An empty slice
// means the whole table is valid.
func (t *Table) Validate(corrective Region) []string {
	var bad []string
	for _, a := range t.alerters {
		if !a.HasCorrectiveLevel(corrective) {
			bad = append(bad, a.Name)
		}
	}
	return bad
}
