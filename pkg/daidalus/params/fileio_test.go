package params

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultCarriesAStandardAlerter(t *testing.T) {
	p := Default()
	if p.Alerters.Len() == 0 {
		t.Fatalf("Default() should register at least one alerter")
	}
	a, ok := p.Alerters.AlerterAt(1)
	if !ok {
		t.Fatalf("AlerterAt(1) should resolve")
	}
	if !a.HasCorrectiveLevel(p.CorrectiveRegion) {
		t.Errorf("default alerter must declare a corrective-region level")
	}
}

func TestLoadToleratesUnknownKeys(t *testing.T) {
	r := strings.NewReader("lookahead_time = 200\nsome_future_key = 5\n")
	p, warnings, err := Load(r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.LookaheadTime != 200 {
		t.Errorf("lookahead_time: got %v, want 200", p.LookaheadTime)
	}
	if len(warnings) == 0 {
		t.Errorf("unknown key should produce a warning")
	}
}

func TestLoadMissingKeysKeepDefaults(t *testing.T) {
	r := strings.NewReader("lookahead_time = 90\n")
	p, _, err := Load(r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if p.Hyst.HysteresisTime != def.Hyst.HysteresisTime {
		t.Errorf("unspecified hysteresis_time should keep the default, got %v want %v", p.Hyst.HysteresisTime, def.Hyst.HysteresisTime)
	}
}

func TestLoadAlertersKeyReplacesStockTable(t *testing.T) {
	cfg := "alerters = custom\n" +
		"custom_detector_1 = CD3D\n" +
		"custom_d_1 = 1 [nmi]\n" +
		"custom_h_1 = 700 [ft]\n" +
		"custom_alerting_time_1 = 30\n" +
		"custom_early_alerting_time_1 = 45\n" +
		"custom_region_1 = MID\n"
	p, warnings, err := Load(strings.NewReader(cfg))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}
	if p.Alerters.Len() != 1 {
		t.Fatalf("explicit alerters key should replace the stock table, got %d alerters", p.Alerters.Len())
	}
	if idx := p.Alerters.IndexOf("default"); idx != 0 {
		t.Errorf("the stock \"default\" alerter should not survive an explicit alerters key")
	}
	if idx := p.Alerters.IndexOf("custom"); idx != 1 {
		t.Errorf("custom alerter should be registered at index 1, got %d", idx)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := Default()
	p.LookaheadTime = 222
	p.Hyst.MofN_M = 3

	var buf bytes.Buffer
	if err := Save(&buf, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, _, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.LookaheadTime != p.LookaheadTime {
		t.Errorf("LookaheadTime: got %v, want %v", back.LookaheadTime, p.LookaheadTime)
	}
	if back.Hyst.MofN_M != p.Hyst.MofN_M {
		t.Errorf("MofN_M: got %v, want %v", back.Hyst.MofN_M, p.Hyst.MofN_M)
	}
	if back.Alerters.Len() != p.Alerters.Len() {
		t.Errorf("Alerters.Len(): got %d, want %d", back.Alerters.Len(), p.Alerters.Len())
	}
}
