// Package core implements the Core Orchestrator of spec.md §4.F: it
// holds ownship, traffic, wind, and parameters, dispatches the per-axis
// Real-Band Engines, runs the DTA geofence state machine, and resolves
// which intruder is "most urgent" for coordination purposes. Modeled on
// the teacher's pkg/simulation engine in spirit (a single struct owning
// a registry of named entities plus a tick-driven refresh), generalized
// to DAA semantics.
package core

import (
	"fmt"

	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// AircraftState is one tracked aircraft: ownship or an intruder (spec.md
// §3 "TrafficState").
type AircraftState struct {
	ID           string
	Pos          geom.LatLonAlt
	GroundVel    geom.Vector3D // ENU, m/s
	AlerterIndex int           // 1-based; 0 = none
	Sigma        detectors.Sigma6
	HasSigma     bool
}

// AirVelocity returns ground velocity minus wind (spec.md §3 invariant:
// "air velocity is derivable from ground velocity minus wind").
func (a AircraftState) AirVelocity(wind geom.Vector3D) geom.Vector3D {
	return a.GroundVel.Sub(wind)
}

// indexOf returns the 0-based slice index of the named traffic aircraft,
// or -1 if absent.
func indexOf(traffic []*AircraftState, id string) int {
	for i, t := range traffic {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ErrOwnshipNotSet is returned by operations that require an ownship.
var ErrOwnshipNotSet = fmt.Errorf("core: ownship not set")

// ErrUnknownTraffic is returned when an operation names an aircraft the
// engine has no record of.
type ErrUnknownTraffic struct{ ID string }

func (e ErrUnknownTraffic) Error() string { return fmt.Sprintf("core: unknown traffic %q", e.ID) }

// ErrOwnshipNameCollision is returned by AddTraffic/SetTraffic when the
// name matches the ownship (spec.md §4.F: "ownship cannot be overwritten
// by this path").
type ErrOwnshipNameCollision struct{ ID string }

func (e ErrOwnshipNameCollision) Error() string {
	return fmt.Sprintf("core: %q is the ownship, use SetOwnship", e.ID)
}
