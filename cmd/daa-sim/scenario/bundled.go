package scenario

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed examples/*.yaml
var bundledFS embed.FS

// Bundled returns the scenarios shipped with the binary, sorted by name,
// for the "list" subcommand and for running without a file argument.
func Bundled() ([]Scenario, error) {
	entries, err := bundledFS.ReadDir("examples")
	if err != nil {
		return nil, fmt.Errorf("read bundled scenarios: %w", err)
	}
	scenarios := make([]Scenario, 0, len(entries))
	for _, e := range entries {
		data, err := bundledFS.ReadFile("examples/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read bundled scenario %s: %w", e.Name(), err)
		}
		var s Scenario
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse bundled scenario %s: %w", e.Name(), err)
		}
		if s.TickHz <= 0 {
			s.TickHz = 4
		}
		if s.DurationSec <= 0 {
			s.DurationSec = 60
		}
		scenarios = append(scenarios, s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

// BundledByName looks up a single bundled scenario by its declared name.
func BundledByName(name string) (*Scenario, error) {
	all, err := Bundled()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("no bundled scenario named %q", name)
}
