package params

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/picogrid/daidalus-go/pkg/daidalus/alerting"
	"github.com/picogrid/daidalus-go/pkg/daidalus/detectors"
	"github.com/picogrid/daidalus-go/pkg/daidalus/units"
)

type floatField struct {
	key         string
	aliases     []string
	quantity    units.Quantity
	defaultUnit string
	raw         bool // dimensionless: no unit conversion, value stored as-is
	get         func(*Parameters) float64
	set         func(*Parameters, float64)
}

type boolField struct {
	key  string
	get  func(*Parameters) bool
	set  func(*Parameters, bool)
}

type intField struct {
	key  string
	get  func(*Parameters) int
	set  func(*Parameters, int)
}

func axisFloatFields(axis string, b *AxisBounds) []floatField {
	q := units.Distance
	unit := "m"
	switch axis {
	case "trk", "hdir":
		q, unit = units.Angle, "deg"
	case "gs", "hs":
		q, unit = units.Speed, "knot"
	case "vs":
		q, unit = units.Speed, "fpm"
	case "alt":
		q, unit = units.Distance, "ft"
	}
	return []floatField{
		{key: axis + "_min", quantity: q, defaultUnit: unit, get: func(p *Parameters) float64 { return b.Min }, set: func(p *Parameters, v float64) { b.Min = v }},
		{key: axis + "_max", quantity: q, defaultUnit: unit, get: func(p *Parameters) float64 { return b.Max }, set: func(p *Parameters, v float64) { b.Max = v }},
		{key: axis + "_step", quantity: q, defaultUnit: unit, get: func(p *Parameters) float64 { return b.Step }, set: func(p *Parameters, v float64) { b.Step = v }},
		{key: "below_" + axis, quantity: q, defaultUnit: unit, get: func(p *Parameters) float64 { return b.Below }, set: func(p *Parameters, v float64) { b.Below = v }},
		{key: "above_" + axis, quantity: q, defaultUnit: unit, get: func(p *Parameters) float64 { return b.Above }, set: func(p *Parameters, v float64) { b.Above = v }},
	}
}

// floatFields builds the full descriptor table against a live Parameters
// instance. Rebuilt per Load/Save call since closures capture axis
// pointers by address.
func floatFields(p *Parameters) []floatField {
	var fs []floatField
	fs = append(fs, axisFloatFields("trk", &p.Dir)...)
	fs = append(fs, axisFloatFields("gs", &p.Hs)...)
	fs = append(fs, axisFloatFields("vs", &p.Vs)...)
	fs = append(fs, axisFloatFields("alt", &p.Alt)...)

	fs = append(fs,
		floatField{key: "lookahead_time", quantity: units.Time, defaultUnit: "s",
			get: func(p *Parameters) float64 { return p.LookaheadTime },
			set: func(p *Parameters, v float64) { p.LookaheadTime = v }},
		floatField{key: "turn_rate", quantity: units.Angle, defaultUnit: "deg",
			get: func(p *Parameters) float64 { return p.Kinematic.TurnRate },
			set: func(p *Parameters, v float64) { p.Kinematic.TurnRate = v }},
		floatField{key: "horizontal_accel", quantity: units.Acceleration, defaultUnit: "m/s2",
			get: func(p *Parameters) float64 { return p.Kinematic.HorizontalAccel },
			set: func(p *Parameters, v float64) { p.Kinematic.HorizontalAccel = v }},
		floatField{key: "vertical_accel", quantity: units.Acceleration, defaultUnit: "m/s2",
			get: func(p *Parameters) float64 { return p.Kinematic.VerticalAccel },
			set: func(p *Parameters, v float64) { p.Kinematic.VerticalAccel = v }},
		floatField{key: "vertical_rate", quantity: units.Speed, defaultUnit: "fpm",
			get: func(p *Parameters) float64 { return p.Kinematic.VerticalRate },
			set: func(p *Parameters, v float64) { p.Kinematic.VerticalRate = v }},

		floatField{key: "min_horizontal_recovery", quantity: units.Distance, defaultUnit: "nmi",
			get: func(p *Parameters) float64 { return p.Recovery.MinHorizontalRecovery },
			set: func(p *Parameters, v float64) { p.Recovery.MinHorizontalRecovery = v }},
		floatField{key: "min_vertical_recovery", quantity: units.Distance, defaultUnit: "ft",
			get: func(p *Parameters) float64 { return p.Recovery.MinVerticalRecovery },
			set: func(p *Parameters, v float64) { p.Recovery.MinVerticalRecovery = v }},
		floatField{key: "nmac_horizontal", quantity: units.Distance, defaultUnit: "nmi",
			get: func(p *Parameters) float64 { return p.Recovery.NMACHorizontal },
			set: func(p *Parameters, v float64) { p.Recovery.NMACHorizontal = v }},
		floatField{key: "nmac_vertical", quantity: units.Distance, defaultUnit: "ft",
			get: func(p *Parameters) float64 { return p.Recovery.NMACVertical },
			set: func(p *Parameters, v float64) { p.Recovery.NMACVertical = v }},
		floatField{key: "recovery_stability_time", quantity: units.Time, defaultUnit: "s",
			get: func(p *Parameters) float64 { return p.Recovery.StabilityTime },
			set: func(p *Parameters, v float64) { p.Recovery.StabilityTime = v }},
		floatField{key: "ca_factor", raw: true,
			get: func(p *Parameters) float64 { return p.Recovery.CAFactor },
			set: func(p *Parameters, v float64) { p.Recovery.CAFactor = v }},

		floatField{key: "hysteresis_time", quantity: units.Time, defaultUnit: "s",
			get: func(p *Parameters) float64 { return p.Hyst.HysteresisTime },
			set: func(p *Parameters, v float64) { p.Hyst.HysteresisTime = v }},
		floatField{key: "persistence_time", quantity: units.Time, defaultUnit: "s",
			get: func(p *Parameters) float64 { return p.Hyst.PersistenceTime },
			set: func(p *Parameters, v float64) { p.Hyst.PersistenceTime = v }},

		floatField{key: "horizontal_position_z_score", raw: true,
			get: func(p *Parameters) float64 { return p.SUM.HorizontalPositionZ },
			set: func(p *Parameters, v float64) { p.SUM.HorizontalPositionZ = v }},
		floatField{key: "horizontal_velocity_z_score_min", raw: true,
			get: func(p *Parameters) float64 { return p.SUM.HorizontalVelocityZMin },
			set: func(p *Parameters, v float64) { p.SUM.HorizontalVelocityZMin = v }},
		floatField{key: "horizontal_velocity_z_score_max", raw: true,
			get: func(p *Parameters) float64 { return p.SUM.HorizontalVelocityZMax },
			set: func(p *Parameters, v float64) { p.SUM.HorizontalVelocityZMax = v }},
		floatField{key: "horizontal_velocity_z_distance", quantity: units.Distance, defaultUnit: "nmi",
			get: func(p *Parameters) float64 { return p.SUM.HorizontalVelocityZDistance },
			set: func(p *Parameters, v float64) { p.SUM.HorizontalVelocityZDistance = v }},
		floatField{key: "vertical_position_z_score", raw: true,
			get: func(p *Parameters) float64 { return p.SUM.VerticalPositionZ },
			set: func(p *Parameters, v float64) { p.SUM.VerticalPositionZ = v }},
		floatField{key: "vertical_speed_z_score", raw: true,
			get: func(p *Parameters) float64 { return p.SUM.VerticalSpeedZ },
			set: func(p *Parameters, v float64) { p.SUM.VerticalSpeedZ = v }},

		floatField{key: "dta_latitude", quantity: units.Angle, defaultUnit: "deg",
			get: func(p *Parameters) float64 { return p.DTA.LatRad },
			set: func(p *Parameters, v float64) { p.DTA.LatRad = v }},
		floatField{key: "dta_longitude", quantity: units.Angle, defaultUnit: "deg",
			get: func(p *Parameters) float64 { return p.DTA.LonRad },
			set: func(p *Parameters, v float64) { p.DTA.LonRad = v }},
		floatField{key: "dta_radius", quantity: units.Distance, defaultUnit: "nmi",
			get: func(p *Parameters) float64 { return p.DTA.RadiusMeters },
			set: func(p *Parameters, v float64) { p.DTA.RadiusMeters = v }},
		floatField{key: "dta_height", quantity: units.Distance, defaultUnit: "ft",
			get: func(p *Parameters) float64 { return p.DTA.HeightMeters },
			set: func(p *Parameters, v float64) { p.DTA.HeightMeters = v }},
	)
	return fs
}

func boolFields(p *Parameters) []boolField {
	return []boolField{
		{key: "ca_bands", get: func(p *Parameters) bool { return p.Recovery.CAEnabled }, set: func(p *Parameters, v bool) { p.Recovery.CAEnabled = v }},
		{key: "bands_persistence", get: func(p *Parameters) bool { return p.Hyst.BandsPersistence }, set: func(p *Parameters, v bool) { p.Hyst.BandsPersistence = v }},
		{key: "ownship_centric_alerting", get: func(p *Parameters) bool { return p.OwnshipCentricAlerting }, set: func(p *Parameters, v bool) { p.OwnshipCentricAlerting = v }},
		{key: "conflict_crit", get: func(p *Parameters) bool { return p.ConflictRepulsiveCrit }, set: func(p *Parameters, v bool) { p.ConflictRepulsiveCrit = v }},
		{key: "recovery_crit", get: func(p *Parameters) bool { return p.RecoveryRepulsiveCrit }, set: func(p *Parameters, v bool) { p.RecoveryRepulsiveCrit = v }},
	}
}

func intFields(p *Parameters) []intField {
	return []intField{
		{key: "m", get: func(p *Parameters) int { return p.Hyst.MofN_M }, set: func(p *Parameters, v int) { p.Hyst.MofN_M = v }},
		{key: "n", get: func(p *Parameters) int { return p.Hyst.MofN_N }, set: func(p *Parameters, v int) { p.Hyst.MofN_N = v }},
		{key: "dta_logic", get: func(p *Parameters) int { return p.DTA.Logic }, set: func(p *Parameters, v int) { p.DTA.Logic = v }},
		{key: "dta_alerter", get: func(p *Parameters) int { return p.DTA.AlerterIndex }, set: func(p *Parameters, v int) { p.DTA.AlerterIndex = v }},
	}
}

// aliases maps legacy key names to the canonical key used by the tables
// above (spec.md §6: "Aliases exist for legacy keys (e.g. left_trk <->
// left_hdir)").
var aliases = map[string]string{
	"left_trk":   "below_trk",
	"right_trk":  "above_trk",
	"left_hdir":  "below_trk",
	"right_hdir": "above_trk",
}

func canonicalKey(key string) string {
	if c, ok := aliases[key]; ok {
		return c
	}
	return key
}

// Load parses a `key = value [unit]` configuration stream into a fresh
// Parameters starting from Default(), per spec.md §6: unknown keys
// produce a warning and are otherwise ignored; missing keys keep their
// default value.
func Load(r io.Reader) (*Parameters, []string, error) {
	p := Default()
	var warnings []string

	floats := floatFields(p)
	bools := boolFields(p)
	ints := intFields(p)

	pendingAlerters := map[string]map[int]*alertLevelBuild{}
	var alerterOrder []string
	sawAlertersKey := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: no '=' found, ignored", lineNo))
			continue
		}
		key := strings.TrimSpace(line[:eq])
		rawVal := strings.TrimSpace(line[eq+1:])
		key = canonicalKey(key)

		switch {
		case key == "corrective_region":
			p.CorrectiveRegion = parseRegion(rawVal)
			continue
		case key == "alerters":
			sawAlertersKey = true
			for _, name := range strings.Split(rawVal, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				alerterOrder = append(alerterOrder, name)
				pendingAlerters[name] = map[int]*alertLevelBuild{}
			}
			continue
		}

		if name, idx, field, ok := parseAlerterKey(key, alerterOrder); ok {
			lvl := ensureLevel(pendingAlerters, name, idx)
			applyAlerterField(lvl, field, rawVal)
			continue
		}

		val, unit, hasUnit := splitValueUnit(rawVal)

		matched := false
		for _, f := range floats {
			if f.key != key {
				continue
			}
			matched = true
			num, err := strconv.ParseFloat(val, 64)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: bad float for %s: %v", lineNo, key, err))
				break
			}
			if f.raw {
				f.set(p, num)
				break
			}
			u := f.defaultUnit
			if hasUnit {
				u = unit
			}
			si, ok := units.From(f.quantity, u, num)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("line %d: unrecognized unit %q for %s", lineNo, u, key))
				break
			}
			f.set(p, si)
			break
		}
		if matched {
			continue
		}
		for _, f := range bools {
			if f.key != key {
				continue
			}
			matched = true
			f.set(p, val == "true" || val == "1")
			break
		}
		if matched {
			continue
		}
		for _, f := range ints {
			if f.key != key {
				continue
			}
			matched = true
			n, err := strconv.Atoi(val)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: bad int for %s: %v", lineNo, key, err))
				break
			}
			f.set(p, n)
			break
		}
		if !matched {
			warnings = append(warnings, fmt.Sprintf("line %d: unknown key %q ignored", lineNo, key))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("params: read: %w", err)
	}

	if sawAlertersKey {
		// An explicit `alerters = ...` line fully replaces the stock
		// alerter table rather than appending to it, per spec.md §6's
		// "Alerters are serialized with a top-level list key" — the
		// list key names every alerter the file configures.
		p.Alerters = alerting.NewTable()
	}
	for _, name := range alerterOrder {
		a := buildAlerter(name, pendingAlerters[name])
		if _, err := p.Alerters.Add(a); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	return p, warnings, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

func splitValueUnit(raw string) (value, unit string, hasUnit bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '['); i >= 0 {
		if j := strings.IndexByte(raw[i:], ']'); j >= 0 {
			unit = strings.TrimSpace(raw[i+1 : i+j])
			value = strings.TrimSpace(raw[:i])
			return value, unit, true
		}
	}
	fields := strings.Fields(raw)
	if len(fields) == 2 {
		return fields[0], fields[1], true
	}
	return raw, "", false
}

func parseRegion(s string) alerting.Region {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEAR":
		return alerting.RegionNear
	case "MID":
		return alerting.RegionMid
	case "FAR":
		return alerting.RegionFar
	default:
		return alerting.RegionMid
	}
}

type alertLevelBuild struct {
	detectorKind string
	d, h         float64
	tauStar      float64
	tAlert       float64
	tEarly       float64
	region       alerting.Region
}

func ensureLevel(pending map[string]map[int]*alertLevelBuild, name string, idx int) *alertLevelBuild {
	m, ok := pending[name]
	if !ok {
		m = map[int]*alertLevelBuild{}
		pending[name] = m
	}
	lvl, ok := m[idx]
	if !ok {
		lvl = &alertLevelBuild{}
		m[idx] = lvl
	}
	return lvl
}

// parseAlerterKey recognizes "<name>_<field>_<index>" keys per spec.md
// §6's "a_detector_1 = WCV_TAUMOD" example.
func parseAlerterKey(key string, names []string) (name string, idx int, field string, ok bool) {
	for _, n := range names {
		prefix := n + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		under := strings.LastIndexByte(rest, '_')
		if under < 0 {
			continue
		}
		idxStr := rest[under+1:]
		i, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}
		return n, i, rest[:under], true
	}
	return "", 0, "", false
}

func applyAlerterField(lvl *alertLevelBuild, field, rawVal string) {
	val, unit, hasUnit := splitValueUnit(rawVal)
	switch field {
	case "detector":
		lvl.detectorKind = strings.TrimSpace(rawVal)
	case "region":
		lvl.region = parseRegion(rawVal)
	case "alerting_time":
		lvl.tAlert = parseTimeOrZero(val, unit, hasUnit)
	case "early_alerting_time":
		lvl.tEarly = parseTimeOrZero(val, unit, hasUnit)
	case "d", "horizontal_distance":
		lvl.d = parseDistOrZero(val, unit, hasUnit)
	case "h", "vertical_distance":
		lvl.h = parseDistOrZero(val, unit, hasUnit)
	case "tau_star":
		lvl.tauStar = parseTimeOrZero(val, unit, hasUnit)
	}
}

func parseTimeOrZero(val, unit string, hasUnit bool) float64 {
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	u := "s"
	if hasUnit {
		u = unit
	}
	si, _ := units.From(units.Time, u, n)
	return si
}

func parseDistOrZero(val, unit string, hasUnit bool) float64 {
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	u := "nmi"
	if hasUnit {
		u = unit
	}
	si, _ := units.From(units.Distance, u, n)
	return si
}

func buildAlerter(name string, levels map[int]*alertLevelBuild) alerting.Alerter {
	max := 0
	for i := range levels {
		if i > max {
			max = i
		}
	}
	a := alerting.Alerter{Name: name}
	for i := 1; i <= max; i++ {
		b, ok := levels[i]
		if !ok {
			continue
		}
		kind, _ := detectors.ParseKind(b.detectorKind)
		a.Levels = append(a.Levels, alerting.Level{
			Detector: detectors.Detector{Kind: kind, D: b.d, H: b.h, TauStar: b.tauStar},
			TAlert:   b.tAlert,
			TEarly:   b.tEarly,
			Region:   b.region,
		})
	}
	return a
}

// Save writes p back out in the same format, round-tripping the full
// record with fixed precision (spec.md §6: "≥ 10 significant digits, no
// trailing zero padding").
func Save(w io.Writer, p *Parameters) error {
	bw := bufio.NewWriter(w)

	for _, f := range floatFields(p) {
		raw := f.get(p)
		if f.raw {
			if _, err := fmt.Fprintf(bw, "%s = %s\n", f.key, formatFloat(raw)); err != nil {
				return err
			}
			continue
		}
		v, _ := units.To(f.quantity, f.defaultUnit, raw)
		if _, err := fmt.Fprintf(bw, "%s = %s [%s]\n", f.key, formatFloat(v), f.defaultUnit); err != nil {
			return err
		}
	}
	for _, f := range boolFields(p) {
		if _, err := fmt.Fprintf(bw, "%s = %t\n", f.key, f.get(p)); err != nil {
			return err
		}
	}
	for _, f := range intFields(p) {
		if _, err := fmt.Fprintf(bw, "%s = %d\n", f.key, f.get(p)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "corrective_region = %s\n", p.CorrectiveRegion); err != nil {
		return err
	}

	if p.Alerters != nil && p.Alerters.Len() > 0 {
		var names []string
		for i := 1; i <= p.Alerters.Len(); i++ {
			a, _ := p.Alerters.AlerterAt(i)
			names = append(names, a.Name)
		}
		if _, err := fmt.Fprintf(bw, "alerters = %s\n", strings.Join(names, ", ")); err != nil {
			return err
		}
		for i := 1; i <= p.Alerters.Len(); i++ {
			a, _ := p.Alerters.AlerterAt(i)
			for li, lvl := range a.Levels {
				n := li + 1
				dNmi, _ := units.To(units.Distance, "nmi", lvl.Detector.D)
				hFt, _ := units.To(units.Distance, "ft", lvl.Detector.H)
				fmt.Fprintf(bw, "%s_detector_%d = %s\n", a.Name, n, lvl.Detector.Kind)
				fmt.Fprintf(bw, "%s_d_%d = %s [nmi]\n", a.Name, n, formatFloat(dNmi))
				fmt.Fprintf(bw, "%s_h_%d = %s [ft]\n", a.Name, n, formatFloat(hFt))
				fmt.Fprintf(bw, "%s_alerting_time_%d = %s [s]\n", a.Name, n, formatFloat(lvl.TAlert))
				fmt.Fprintf(bw, "%s_early_alerting_time_%d = %s [s]\n", a.Name, n, formatFloat(lvl.TEarly))
				fmt.Fprintf(bw, "%s_region_%d = %s\n", a.Name, n, lvl.Region)
			}
		}
	}

	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
