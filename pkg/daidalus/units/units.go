// Package units implements the closed, linear unit-conversion table
// described in spec.md §6. Internal engine state is always SI; this
// package is the only place a unit string is resolved to/from a scale
// factor, mirroring the teacher's config layer in spirit (a static table
// plus direct field access) rather than a dynamic parser.
package units

import "math"

// Factor is the multiplicative scale taking a value in the named unit to
// its SI equivalent: si = value * Factor.
type Factor = float64

// Quantity identifies which of the closed dimension tables a unit string
// should be looked up in ("G" means something different as a speed unit
// than as an acceleration unit, so lookup is always quantity-scoped).
type Quantity int

const (
	Distance Quantity = iota
	Speed
	Acceleration
	Angle
	Time
)

const standardGravity = 9.80665 // m/s^2

var tables = map[Quantity]map[string]Factor{
	Distance: {
		"m":   1.0,
		"ft":  0.3048,
		"nmi": 1852.0,
		"km":  1000.0,
	},
	Speed: {
		"m/s":  1.0,
		"knot": 1852.0 / 3600.0,
		"kt":   1852.0 / 3600.0,
		"fpm":  0.3048 / 60.0,
		"kph":  1000.0 / 3600.0,
		"G":    standardGravity, // degenerate per spec.md §6's literal unit table
	},
	Acceleration: {
		"m/s2": 1.0,
		"G":    standardGravity,
	},
	Angle: {
		"rad": 1.0,
		"deg": math.Pi / 180.0,
	},
	Time: {
		"s": 1.0,
	},
}

// From converts a value expressed in unit u, of the given quantity, into
// SI. ok is false when u is not recognized for that quantity (InvalidValue
// per spec.md §7); the value is returned unconverted in that case so
// callers can still log it.
func From(q Quantity, u string, value float64) (si float64, ok bool) {
	f, ok := tables[q][u]
	if !ok {
		return value, false
	}
	return value * f, true
}

// To converts an SI value into unit u of the given quantity.
func To(q Quantity, u string, si float64) (value float64, ok bool) {
	f, ok := tables[q][u]
	if !ok {
		return si, false
	}
	return si / f, true
}

// IsRecognized reports whether u is a recognized unit string for q.
func IsRecognized(q Quantity, u string) bool {
	_, ok := tables[q][u]
	return ok
}
