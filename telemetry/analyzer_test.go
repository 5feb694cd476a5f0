package telemetry

import (
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

func testAnalysisConfig() *config.AnalysisConfig {
	return &config.AnalysisConfig{
		HistorySize:             500,
		TrendWindow:             10,
		TrendThreshold:          0.1,
		MinViable:               config.MinViableConfig{Grass: 100, Sheep: 10, Wolf: 4},
		OscillationMinDuration:  5,
		OscillationMinAmplitude: 5,
		NearExtinctionFloor:     5,
		ExtinctionLookback:      100,
		RapidDeclineThreshold:   0.3,
		MaxPredatorPreyRatio:    0.5,
	}
}

func snap(tick, grass, sheep, wolves int) PopulationSnapshot {
	return PopulationSnapshot{Tick: tick, Grass: grass, Sheep: sheep, Wolves: wolves}
}

// ---------- oscillation ----------

func TestAnalyzer_SingleGrowthToDeclineCycle(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())

	var cycles []OscillationCycle
	// Rise 10 -> 110 over ticks 0..20, then fall back to 10 over ticks 21..40.
	for tick := 0; tick <= 40; tick++ {
		sheep := 10 + 5*tick
		if tick > 20 {
			sheep = 110 - 5*(tick-20)
		}
		obs := a.Observe(snap(tick, 500, sheep, 5), nil)
		cycles = append(cycles, obs.NewCycles...)
	}

	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %+v", len(cycles), cycles)
	}
	c := cycles[0]
	if c.Kind != components.KindSheep {
		t.Errorf("Kind = %v, want sheep", c.Kind)
	}
	if c.Type != CycleGrowthToDecline {
		t.Errorf("Type = %s, want %s", c.Type, CycleGrowthToDecline)
	}
	if c.TurnTick != 20 || c.Peak != 110 {
		t.Errorf("turn = tick %d peak %v, want tick 20 peak 110", c.TurnTick, c.Peak)
	}
	if c.ConfirmTick != 26 {
		t.Errorf("ConfirmTick = %d, want 26", c.ConfirmTick)
	}
	if c.Trigger != TriggerIntrinsic {
		t.Errorf("Trigger = %s, want %s with constant neighbours", c.Trigger, TriggerIntrinsic)
	}
	if got := a.OscillationAnalysis().CycleCounts[components.KindSheep]; got != 1 {
		t.Errorf("CycleCounts[sheep] = %d, want 1", got)
	}
}

func TestAnalyzer_NearExtinctionRecovery(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())

	var cycles []OscillationCycle
	for tick := 0; tick <= 36; tick++ {
		sheep := 50 - 3*tick
		if tick > 16 {
			sheep = 2 + 3*(tick-16)
		}
		cycles = append(cycles, a.Observe(snap(tick, 500, sheep, 5), nil).NewCycles...)
	}

	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %+v", len(cycles), cycles)
	}
	if cycles[0].Type != CycleNearExtinctionRecovery {
		t.Errorf("Type = %s, want %s", cycles[0].Type, CycleNearExtinctionRecovery)
	}
	if cycles[0].Trough != 2 {
		t.Errorf("Trough = %v, want 2", cycles[0].Trough)
	}
}

func TestAnalyzer_PredatorPressureTrigger(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())

	var cycles []OscillationCycle
	for tick := 0; tick <= 40; tick++ {
		sheep := 10 + 5*tick
		if tick > 20 {
			sheep = 110 - 5*(tick-20)
		}
		// Wolves climb steadily and never turn.
		cycles = append(cycles, a.Observe(snap(tick, 500, sheep, 5+tick), nil).NewCycles...)
	}

	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1", len(cycles))
	}
	if cycles[0].Trigger != TriggerPredatorPressure {
		t.Errorf("Trigger = %s, want %s", cycles[0].Trigger, TriggerPredatorPressure)
	}
}

func TestAnalyzer_SmallSwingsIgnored(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	for tick := 0; tick < 100; tick++ {
		// Zigzag of amplitude 4 never exceeds the minimum amplitude.
		sheep := 50 + 2*(tick%3)
		if obs := a.Observe(snap(tick, 500, sheep, 5), nil); len(obs.NewCycles) != 0 {
			t.Fatalf("tick %d: unexpected cycle %+v", tick, obs.NewCycles[0])
		}
	}
}

// ---------- trend and health ----------

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		window int
		want   Trend
	}{
		{"too short", []float64{5}, 2, TrendStable},
		{"flat", []float64{10, 10, 10, 10}, 2, TrendStable},
		{"rising", []float64{10, 10, 20, 20}, 2, TrendIncreasing},
		{"falling", []float64{20, 20, 10, 10}, 2, TrendDeclining},
		{"within threshold", []float64{100, 100, 105, 105}, 2, TrendStable},
		{"from zero", []float64{0, 0, 5, 5}, 2, TrendIncreasing},
		{"all zero", []float64{0, 0, 0, 0}, 2, TrendStable},
		{"window shrinks", []float64{10, 20}, 10, TrendIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.series, tt.window, 0.1); got != tt.want {
				t.Errorf("ClassifyTrend(%v) = %s, want %s", tt.series, got, tt.want)
			}
		})
	}
}

func constant(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestScoreSpecies(t *testing.T) {
	tests := []struct {
		name       string
		series     []float64
		minViable  int
		wantScore  float64
		wantStatus HealthStatus
	}{
		{"stable and viable", constant(20, 10), 10, 90, StatusThriving},
		{"stable below viable", constant(5, 10), 10, 70, StatusHealthy},
		{"extinct", append(constant(5, 9), 0), 10, -1, StatusExtinct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ScoreSpecies(components.KindSheep, tt.series, tt.minViable, 4, 0.1)
			if h.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", h.Status, tt.wantStatus)
			}
			if tt.wantScore >= 0 && math.Abs(h.Score-tt.wantScore) > 1e-9 {
				t.Errorf("Score = %v, want %v", h.Score, tt.wantScore)
			}
			if h.Score < 0 || h.Score > 100 {
				t.Errorf("Score %v outside [0, 100]", h.Score)
			}
		})
	}
}

func TestAnalyzer_Health(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	for tick := 0; tick < 20; tick++ {
		a.Observe(snap(tick, 500, 30, 8), nil)
	}
	h := a.Health()
	if h.Tick != 19 {
		t.Errorf("Tick = %d, want 19", h.Tick)
	}
	if h.Status != StatusThriving {
		t.Errorf("Status = %s, want thriving for steady viable populations", h.Status)
	}
	for _, k := range components.Kinds {
		if h.Species[k].Trend != TrendStable {
			t.Errorf("%s trend = %s, want stable", k, h.Species[k].Trend)
		}
	}
}

// ---------- extinction ----------

func death(kind components.Kind, cause components.DeathCause, tick int) components.DeathRecord {
	return components.DeathRecord{
		Kind:  kind,
		Cause: cause,
		Tick:  tick,
		Context: components.EnvironmentContext{
			NearbyPrey:      2,
			NearbyPredators: 3,
			ResourceDensity: 0.5,
		},
	}
}

func TestAnalyzeExtinction_RanksCauses(t *testing.T) {
	var recent []components.DeathRecord
	recent = append(recent, death(components.KindSheep, components.CauseAge, 10)) // outside lookback
	for i := 0; i < 6; i++ {
		recent = append(recent, death(components.KindSheep, components.CauseHunting, 190+i))
	}
	recent = append(recent,
		death(components.KindSheep, components.CauseStarvation, 195),
		death(components.KindSheep, components.CauseStarvation, 196),
		death(components.KindWolf, components.CauseAge, 197),
	)
	mis := death(components.KindSheep, components.CauseStarvation, 198)
	mis.Miscarriage = true
	recent = append(recent, mis)

	a := AnalyzeExtinction(components.KindSheep, 200, recent, 100)

	if a.PrimaryCause != components.CauseHunting {
		t.Errorf("PrimaryCause = %s, want hunting", a.PrimaryCause)
	}
	if a.RecordsConsidered != 8 {
		t.Errorf("RecordsConsidered = %d, want 8", a.RecordsConsidered)
	}
	// share 6/8, sample factor 8/20
	if math.Abs(a.Confidence-0.3) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.3", a.Confidence)
	}

	joined := strings.Join(a.ContributingFactors, "|")
	for _, want := range []string{"secondary cause starvation (25%)", "high predator pressure", "reproductive failure (1 miscarriages)"} {
		if !strings.Contains(joined, want) {
			t.Errorf("factors %q missing %q", joined, want)
		}
	}
	for _, unwanted := range []string{"low prey", "resource scarcity"} {
		if strings.Contains(joined, unwanted) {
			t.Errorf("factors %q should not contain %q", joined, unwanted)
		}
	}
	if a.Recommendation == "" {
		t.Error("expected a recommendation")
	}
}

func TestAnalyzeExtinction_TiesFollowPolicyOrder(t *testing.T) {
	recent := []components.DeathRecord{
		death(components.KindWolf, components.CauseHunger, 1),
		death(components.KindWolf, components.CauseHunger, 2),
		death(components.KindWolf, components.CauseAge, 3),
		death(components.KindWolf, components.CauseAge, 4),
	}
	a := AnalyzeExtinction(components.KindWolf, 5, recent, 100)
	if a.PrimaryCause != components.CauseAge {
		t.Errorf("PrimaryCause = %s, want age", a.PrimaryCause)
	}
}

func TestAnalyzeExtinction_NoRecords(t *testing.T) {
	a := AnalyzeExtinction(components.KindWolf, 50, nil, 100)
	if a.PrimaryCause != CauseUnknown {
		t.Errorf("PrimaryCause = %s, want unknown", a.PrimaryCause)
	}
	if a.Confidence != minConfidence {
		t.Errorf("Confidence = %v, want %v", a.Confidence, minConfidence)
	}
}

func TestAnalyzer_ExtinctionOnTransition(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	recent := []components.DeathRecord{death(components.KindWolf, components.CauseStarvation, 1)}

	a.Observe(snap(0, 500, 30, 2), nil)
	obs := a.Observe(snap(1, 500, 30, 0), recent)
	if len(obs.Extinctions) != 1 || obs.Extinctions[0].Kind != components.KindWolf {
		t.Fatalf("Extinctions = %+v, want one wolf analysis", obs.Extinctions)
	}
	if obs.Extinctions[0].PrimaryCause != components.CauseStarvation {
		t.Errorf("PrimaryCause = %s, want starvation", obs.Extinctions[0].PrimaryCause)
	}

	// Still extinct: no second analysis.
	if obs := a.Observe(snap(2, 500, 30, 0), recent); len(obs.Extinctions) != 0 {
		t.Errorf("got %d analyses on a repeated zero count, want 0", len(obs.Extinctions))
	}
	if latest, ok := a.LatestExtinction(); !ok || latest.Tick != 1 {
		t.Errorf("LatestExtinction = %+v, %v", latest, ok)
	}
}

func TestAnalyzer_NoExtinctionForNeverPresent(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	a.Observe(snap(0, 500, 30, 0), nil)
	if obs := a.Observe(snap(1, 500, 30, 0), nil); len(obs.Extinctions) != 0 {
		t.Errorf("got %d analyses, want 0", len(obs.Extinctions))
	}
}

// ---------- alerts ----------

func hasAlert(alerts []Alert, kind AlertKind, species components.Kind) bool {
	for _, a := range alerts {
		if a.Kind == kind && a.Species == species {
			return true
		}
	}
	return false
}

func TestAlertDetector_RaiseAndClear(t *testing.T) {
	d := NewAlertDetector(testAnalysisConfig())

	raised, cleared := d.Check(AlertInput{Snapshot: snap(1, 500, 4, 3)})
	if len(cleared) != 0 {
		t.Errorf("cleared %d alerts on first check", len(cleared))
	}
	if !hasAlert(raised, AlertPopulationLow, components.KindSheep) {
		t.Error("expected population_low for 4 sheep")
	}
	if !hasAlert(raised, AlertPredatorPreyImbalance, components.KindWolf) {
		t.Error("expected imbalance for 3 wolves to 4 sheep")
	}

	// Same condition again: nothing new.
	raised, _ = d.Check(AlertInput{Snapshot: snap(2, 500, 4, 3)})
	if len(raised) != 0 {
		t.Errorf("re-raised %d alerts for an unchanged state", len(raised))
	}

	raised, cleared = d.Check(AlertInput{Snapshot: snap(3, 500, 40, 0)})
	if !hasAlert(raised, AlertExtinction, components.KindWolf) {
		t.Error("expected wolf extinction alert")
	}
	if !hasAlert(cleared, AlertPopulationLow, components.KindSheep) {
		t.Error("expected population_low to clear")
	}

	active := d.Active()
	if len(active) == 0 || active[0].Severity != SeverityCritical {
		t.Fatalf("Active = %+v, want critical first", active)
	}
	for i := 1; i < len(active); i++ {
		if active[i].Severity > active[i-1].Severity {
			t.Errorf("alerts not sorted by severity: %+v", active)
		}
	}
}

func TestAlertDetector_KeepsRaiseTick(t *testing.T) {
	d := NewAlertDetector(testAnalysisConfig())
	d.Check(AlertInput{Snapshot: snap(5, 500, 40, 0)})
	d.Check(AlertInput{Snapshot: snap(9, 500, 40, 0)})
	for _, a := range d.Active() {
		if a.Kind == AlertExtinction && a.Tick != 5 {
			t.Errorf("extinction alert tick = %d, want 5", a.Tick)
		}
	}
}

func TestAlertDetector_RapidDecline(t *testing.T) {
	d := NewAlertDetector(testAnalysisConfig())
	h := NewHistory(20)
	h.Add(snap(0, 500, 100, 5))
	h.Add(snap(1, 500, 60, 5))

	raised, _ := d.Check(AlertInput{Snapshot: snap(1, 500, 60, 5), History: h})
	if !hasAlert(raised, AlertRapidDecline, components.KindSheep) {
		t.Errorf("expected rapid_decline for a 40%% drop, got %+v", raised)
	}
}

func TestAlertDetector_OscillationCollapse(t *testing.T) {
	d := NewAlertDetector(testAnalysisConfig())
	cycles := []OscillationCycle{
		{Kind: components.KindSheep, Amplitude: 40},
		{Kind: components.KindWolf, Amplitude: 10},
		{Kind: components.KindSheep, Amplitude: 6},
	}
	raised, _ := d.Check(AlertInput{Snapshot: snap(1, 500, 40, 5), Cycles: cycles})
	if !hasAlert(raised, AlertOscillationCollapse, components.KindSheep) {
		t.Errorf("expected oscillation_collapse for sheep, got %+v", raised)
	}
	if hasAlert(raised, AlertOscillationCollapse, components.KindWolf) {
		t.Error("wolf has a single cycle and should not collapse")
	}
}

// ---------- spectrum ----------

func TestDominantPeriod(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = 50 + 20*math.Sin(2*math.Pi*float64(i)/10)
	}
	if got := DominantPeriod(series); math.Abs(got-10) > 1e-6 {
		t.Errorf("DominantPeriod = %v, want 10", got)
	}
	if got := DominantPeriod([]float64{1, 2, 3}); got != 0 {
		t.Errorf("short series = %v, want 0", got)
	}
	if got := DominantPeriod(constant(7, 16)); got != 0 {
		t.Errorf("flat series = %v, want 0", got)
	}
}

func TestLaggedCorrelation(t *testing.T) {
	n := 60
	leader := make([]float64, n)
	follower := make([]float64, n)
	for i := range leader {
		leader[i] = math.Sin(2 * math.Pi * float64(i) / 20)
		follower[i] = math.Sin(2 * math.Pi * float64(i-3) / 20)
	}
	lag, corr := LaggedCorrelation(leader, follower, 8)
	if lag != 3 {
		t.Errorf("lag = %d, want 3", lag)
	}
	if corr < 0.99 {
		t.Errorf("corr = %v, want ~1", corr)
	}
}

// ---------- history ----------

func TestHistory_Ring(t *testing.T) {
	h := NewHistory(3)
	if _, ok := h.Latest(); ok {
		t.Error("Latest on empty history should report false")
	}
	for tick := 0; tick < 5; tick++ {
		h.Add(snap(tick, 0, tick*10, 0))
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	got := h.Series(components.KindSheep)
	want := []float64{20, 30, 40}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Series = %v, want %v", got, want)
			break
		}
	}
	if latest, _ := h.Latest(); latest.Tick != 4 {
		t.Errorf("Latest tick = %d, want 4", latest.Tick)
	}
}

func TestAnalyzer_Reset(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	for tick := 0; tick < 10; tick++ {
		a.Observe(snap(tick, 500, 2, 0), nil)
	}
	a.Reset()
	if a.History().Len() != 0 {
		t.Errorf("history len = %d after reset", a.History().Len())
	}
	if len(a.ActiveAlerts()) != 0 {
		t.Errorf("%d alerts after reset", len(a.ActiveAlerts()))
	}
	if len(a.Cycles()) != 0 {
		t.Errorf("%d cycles after reset", len(a.Cycles()))
	}
}
