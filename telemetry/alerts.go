package telemetry

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// AlertKind identifies the condition an alert reports.
type AlertKind string

const (
	AlertPopulationLow         AlertKind = "population_low"
	AlertRapidDecline          AlertKind = "rapid_decline"
	AlertExtinction            AlertKind = "extinction"
	AlertPredatorPreyImbalance AlertKind = "predator_prey_imbalance"
	AlertOscillationCollapse   AlertKind = "oscillation_collapse"
)

// Severity orders alerts; higher is more urgent.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return "info"
}

// Alert is an active ecological warning. It stays active while its condition holds.
type Alert struct {
	Kind        AlertKind
	Species     components.Kind
	Severity    Severity
	Tick        int // tick the alert was raised
	Description string
}

// LogAlert logs the alert using slog.
func (a Alert) LogAlert() {
	level := slog.LevelInfo
	if a.Severity >= SeverityWarning {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "alert",
		"kind", string(a.Kind),
		"species", a.Species.String(),
		"severity", a.Severity.String(),
		"tick", a.Tick,
		"description", a.Description,
	)
}

type alertKey struct {
	kind    AlertKind
	species components.Kind
}

// AlertInput is the analyzer state an alert check runs against.
type AlertInput struct {
	Snapshot PopulationSnapshot
	History  *History
	Cycles   []OscillationCycle
}

// AlertDetector raises and clears alerts as conditions change.
type AlertDetector struct {
	cfg    *config.AnalysisConfig
	active map[alertKey]Alert
}

// NewAlertDetector creates a detector using the analyzer thresholds.
func NewAlertDetector(cfg *config.AnalysisConfig) *AlertDetector {
	return &AlertDetector{cfg: cfg, active: make(map[alertKey]Alert)}
}

// Check evaluates every condition and returns alerts newly raised and alerts
// whose condition no longer holds.
func (d *AlertDetector) Check(in AlertInput) (raised, cleared []Alert) {
	current := make(map[alertKey]Alert)
	add := func(a Alert) {
		current[alertKey{a.Kind, a.Species}] = a
	}

	tick := in.Snapshot.Tick
	for _, kind := range components.Kinds {
		count := in.Snapshot.Count(kind)
		minViable := d.minViable(kind)

		switch {
		case count == 0:
			add(Alert{
				Kind: AlertExtinction, Species: kind, Severity: SeverityCritical, Tick: tick,
				Description: fmt.Sprintf("%s population is extinct", kind),
			})
		case count < minViable:
			sev := SeverityWarning
			if count*2 < minViable {
				sev = SeverityCritical
			}
			add(Alert{
				Kind: AlertPopulationLow, Species: kind, Severity: sev, Tick: tick,
				Description: fmt.Sprintf("%s population %d below minimum viable %d", kind, count, minViable),
			})
		}

		if a, ok := d.checkRapidDecline(kind, in); ok {
			add(a)
		}
		if a, ok := d.checkOscillationCollapse(kind, tick, in.Cycles); ok {
			add(a)
		}
	}

	if in.Snapshot.Sheep > 0 && in.Snapshot.Wolves > 0 {
		ratio := float64(in.Snapshot.Wolves) / float64(in.Snapshot.Sheep)
		if ratio > d.cfg.MaxPredatorPreyRatio {
			add(Alert{
				Kind: AlertPredatorPreyImbalance, Species: components.KindWolf, Severity: SeverityWarning, Tick: tick,
				Description: fmt.Sprintf("wolf to sheep ratio %.2f exceeds %.2f", ratio, d.cfg.MaxPredatorPreyRatio),
			})
		}
	}

	for key, a := range current {
		if prev, ok := d.active[key]; ok {
			// Keep the original raise tick while the condition persists.
			a.Tick = prev.Tick
			current[key] = a
			continue
		}
		raised = append(raised, a)
	}
	for key, a := range d.active {
		if _, ok := current[key]; !ok {
			cleared = append(cleared, a)
		}
	}
	d.active = current

	sortAlerts(raised)
	sortAlerts(cleared)
	return raised, cleared
}

// Active returns the active alerts sorted by severity, then kind, then species.
func (d *AlertDetector) Active() []Alert {
	out := make([]Alert, 0, len(d.active))
	for _, a := range d.active {
		out = append(out, a)
	}
	sortAlerts(out)
	return out
}

// Reset clears all active alerts.
func (d *AlertDetector) Reset() {
	clear(d.active)
}

func (d *AlertDetector) minViable(kind components.Kind) int {
	switch kind {
	case components.KindGrass:
		return d.cfg.MinViable.Grass
	case components.KindSheep:
		return d.cfg.MinViable.Sheep
	}
	return d.cfg.MinViable.Wolf
}

// checkRapidDecline compares the current count with the peak of the trend window.
func (d *AlertDetector) checkRapidDecline(kind components.Kind, in AlertInput) (Alert, bool) {
	if in.History == nil {
		return Alert{}, false
	}
	series := in.History.Series(kind)
	if len(series) < 2 {
		return Alert{}, false
	}
	window := series[max(0, len(series)-d.cfg.TrendWindow):]
	peak := slices.Max(window)
	current := series[len(series)-1]
	if peak <= 0 || current == 0 {
		return Alert{}, false
	}
	drop := 1 - current/peak
	if drop <= d.cfg.RapidDeclineThreshold {
		return Alert{}, false
	}
	return Alert{
		Kind: AlertRapidDecline, Species: kind, Severity: SeverityWarning, Tick: in.Snapshot.Tick,
		Description: fmt.Sprintf("%s dropped %.0f%% from recent peak %.0f", kind, drop*100, peak),
	}, true
}

// checkOscillationCollapse flags a species whose latest swing is less than half
// the previous one and near the minimum detectable amplitude.
func (d *AlertDetector) checkOscillationCollapse(kind components.Kind, tick int, cycles []OscillationCycle) (Alert, bool) {
	var last, prev *OscillationCycle
	for i := len(cycles) - 1; i >= 0 && prev == nil; i-- {
		if cycles[i].Kind != kind {
			continue
		}
		if last == nil {
			last = &cycles[i]
		} else {
			prev = &cycles[i]
		}
	}
	if prev == nil {
		return Alert{}, false
	}
	if last.Amplitude*2 >= prev.Amplitude || last.Amplitude >= 2*d.cfg.OscillationMinAmplitude {
		return Alert{}, false
	}
	return Alert{
		Kind: AlertOscillationCollapse, Species: kind, Severity: SeverityInfo, Tick: tick,
		Description: fmt.Sprintf("%s oscillation amplitude fell from %.0f to %.0f", kind, prev.Amplitude, last.Amplitude),
	}, true
}

func sortAlerts(alerts []Alert) {
	slices.SortFunc(alerts, func(a, b Alert) int {
		if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.Species, b.Species)
	})
}
