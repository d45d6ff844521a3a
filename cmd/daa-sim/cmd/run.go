package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picogrid/daidalus-go/cmd/daa-sim/scenario"
	"github.com/picogrid/daidalus-go/pkg/daidalus/alerting"
	"github.com/picogrid/daidalus-go/pkg/daidalus/bands"
	"github.com/picogrid/daidalus-go/pkg/daidalus/daa"
)

var (
	colorNone     = color.New(color.FgGreen)
	colorFar      = color.New(color.FgYellow)
	colorMid      = color.New(color.FgHiRed)
	colorNear     = color.New(color.FgRed, color.Bold)
	colorRecovery = color.New(color.FgMagenta, color.Bold)
	colorUnknown  = color.New(color.FgHiBlack)
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml | bundled-name]",
	Short: "Run a scenario against the DAA engine",
	Long:  `Ticks the engine at the scenario's configured rate, printing coloured band and alert output for its duration.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScenario,
}

func runScenario(cmd *cobra.Command, args []string) error {
	name := "s1_head_on"
	if len(args) == 1 {
		name = args[0]
	}
	s, err := loadOrBundled(name)
	if err != nil {
		return err
	}

	log := newLogger()

	p, err := s.LoadParameters()
	if err != nil {
		return err
	}
	engine := daa.NewWithParameters(p)
	engine.SetLogger(log)

	ownState, err := s.Ownship.ToAircraftState()
	if err != nil {
		return fmt.Errorf("ownship fixture: %w", err)
	}
	if s.Wind != nil {
		engine.SetWindVelocity(s.Wind.ToWindVector())
	}

	simTime := 0.0
	engine.SetOwnshipState(ownState.ID, ownState.Pos, ownState.GroundVel, ownState.AlerterIndex, simTime)

	for _, t := range s.Traffic {
		ts, err := t.ToAircraftState()
		if err != nil {
			return fmt.Errorf("traffic fixture %s: %w", t.ID, err)
		}
		if _, err := engine.AddTrafficState(ts.ID, ts.Pos, ts.GroundVel, ts.AlerterIndex, nil); err != nil {
			return fmt.Errorf("add traffic %s: %w", t.ID, err)
		}
	}

	fmt.Printf("%s: %s\n", s.Name, s.Description)

	tick := 1.0 / s.TickHz
	steps := int(s.DurationSec / tick)
	for i := 0; i <= steps; i++ {
		printTick(engine, s, simTime)
		engine.LinearProjection(tick)
		simTime += tick
	}
	return nil
}

func loadOrBundled(arg string) (*scenario.Scenario, error) {
	if s, err := scenario.Load(arg); err == nil {
		return s, nil
	}
	return scenario.BundledByName(arg)
}

func printTick(engine *daa.Daidalus, s *scenario.Scenario, t float64) {
	for _, traf := range s.Traffic {
		level := engine.AlertLevel(traf.ID)
		fmt.Printf("  t=%6.1fs  %-12s  alert=%d  dta=%v\n", t, traf.ID, level, engine.DTAStatus())
	}

	printBands("DIR", engine.DirectionBands())
	printBands("HS ", engine.HorizontalSpeedBands())
	printBands("VS ", engine.VerticalSpeedBands())
	printBands("ALT", engine.AltitudeBands())
}

func printBands(label string, res bands.Result) {
	fmt.Printf("    %s: ", label)
	for _, r := range res.Ranges {
		regionColor(r.Region).Printf("[%.1f,%.1f]%s ", r.Lo, r.Hi, r.Region)
	}
	fmt.Println()
}

func regionColor(r alerting.Region) *color.Color {
	switch r {
	case alerting.RegionNone:
		return colorNone
	case alerting.RegionFar:
		return colorFar
	case alerting.RegionMid:
		return colorMid
	case alerting.RegionNear:
		return colorNear
	case alerting.RegionRecovery:
		return colorRecovery
	default:
		return colorUnknown
	}
}
