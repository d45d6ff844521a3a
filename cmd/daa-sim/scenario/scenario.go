// Package scenario loads YAML fixtures describing an ownship, its
// traffic, wind, and an optional parameter-file override, for the
// daa-sim demo/regression harness (SPEC_FULL.md "daa-sim run").
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/daidalus-go/pkg/daidalus/core"
	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
	"github.com/picogrid/daidalus-go/pkg/daidalus/params"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

// AircraftFixture is one aircraft's initial state, expressed in the
// client units a scenario author would naturally reach for (degrees,
// knots, feet, feet-per-minute) rather than the engine's internal SI.
type AircraftFixture struct {
	ID             string  `yaml:"id"`
	LatDeg         float64 `yaml:"lat_deg"`
	LonDeg         float64 `yaml:"lon_deg"`
	AltFt          float64 `yaml:"alt_ft"`
	HeadingDeg     float64 `yaml:"heading_deg"`
	GroundSpeedKt  float64 `yaml:"ground_speed_kt"`
	VerticalFpm    float64 `yaml:"vertical_fpm"`
	AlerterIndex   int     `yaml:"alerter_index"`
}

// WindFixture is a constant wind vector, given as the direction the wind
// blows FROM (aviation convention) and its speed.
type WindFixture struct {
	DirectionDeg float64 `yaml:"direction_deg"`
	SpeedKt      float64 `yaml:"speed_kt"`
}

// Scenario is one bundled or user-supplied demo/regression fixture.
type Scenario struct {
	Name           string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Ownship        AircraftFixture   `yaml:"ownship"`
	Traffic        []AircraftFixture `yaml:"traffic"`
	Wind           *WindFixture      `yaml:"wind,omitempty"`
	ParametersFile string            `yaml:"parameters_file,omitempty"`
	DurationSec    float64           `yaml:"duration_sec"`
	TickHz         float64           `yaml:"tick_hz"`
}

// Load parses a scenario YAML file from path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.TickHz <= 0 {
		s.TickHz = 4
	}
	if s.DurationSec <= 0 {
		s.DurationSec = 60
	}
	return &s, nil
}

// ToAircraftState converts a fixture (client units) into engine state
// (SI), the inverse of the client-unit exposure spec.md §4.G describes
// for band output.
func (f AircraftFixture) ToAircraftState() (core.AircraftState, error) {
	latRad, ok := units.From(units.Angle, "deg", f.LatDeg)
	if !ok {
		return core.AircraftState{}, fmt.Errorf("bad lat_deg")
	}
	lonRad, _ := units.From(units.Angle, "deg", f.LonDeg)
	altM, _ := units.From(units.Distance, "ft", f.AltFt)
	hdgRad, _ := units.From(units.Angle, "deg", f.HeadingDeg)
	gsMs, _ := units.From(units.Speed, "kt", f.GroundSpeedKt)
	vsMs, _ := units.From(units.Speed, "fpm", f.VerticalFpm)

	return core.AircraftState{
		ID:        f.ID,
		Pos:       geom.LatLonAlt{Lat: latRad, Lon: lonRad, Alt: altM},
		GroundVel: geom.Mkv(hdgRad, gsMs, vsMs),
		AlerterIndex: f.AlerterIndex,
	}, nil
}

// ToWindVector converts a wind fixture into the ENU vector the engine
// expects, rotating the "blows from" heading into a "blows toward" air
// velocity contribution (direction + 180 degrees).
func (w WindFixture) ToWindVector() geom.Vector3D {
	dirRad, _ := units.From(units.Angle, "deg", w.DirectionDeg)
	speedMs, _ := units.From(units.Speed, "kt", w.SpeedKt)
	toward := geom.Mod2Pi(dirRad + 3.14159265358979323846)
	return geom.Mkv(toward, speedMs, 0)
}

// LoadParameters resolves the scenario's optional parameter-file
// override, or the engine defaults when none is given.
func (s *Scenario) LoadParameters() (*params.Parameters, error) {
	if s.ParametersFile == "" {
		return params.Default(), nil
	}
	f, err := os.Open(s.ParametersFile)
	if err != nil {
		return nil, fmt.Errorf("open parameters file %s: %w", s.ParametersFile, err)
	}
	defer f.Close()
	p, warnings, err := params.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load parameters file %s: %w", s.ParametersFile, err)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", s.ParametersFile, w)
	}
	return p, nil
}
