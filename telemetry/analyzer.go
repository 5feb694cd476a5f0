package telemetry

import (
	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// Observation is what changed in the analyzer after one snapshot.
type Observation struct {
	NewCycles   []OscillationCycle
	Extinctions []ExtinctionAnalysis
	Raised      []Alert
	Cleared     []Alert
}

// OscillationAnalysis summarises the detected population cycles.
type OscillationAnalysis struct {
	Cycles          []OscillationCycle
	CycleCounts     [components.NumKinds]int
	MeanPeriod      [components.NumKinds]float64 // mean ticks between same-type cycles
	DominantPeriod  [components.NumKinds]float64 // spectral estimate, in snapshots
	CurrentTrend    [components.NumKinds]Trend
	PredatorPreyLag int     // snapshots by which wolves follow sheep
	LagCorrelation  float64 // correlation at that lag
}

// Analyzer turns the population snapshot stream into health, cycle, extinction
// and alert assessments.
type Analyzer struct {
	cfg         *config.AnalysisConfig
	history     *History
	trackers    [components.NumKinds]*oscillationTracker
	cycles      []OscillationCycle
	alerts      *AlertDetector
	extinctions []ExtinctionAnalysis
	prevCounts  [components.NumKinds]int
	observed    bool
}

// NewAnalyzer creates an analyzer using the given thresholds.
func NewAnalyzer(cfg *config.AnalysisConfig) *Analyzer {
	a := &Analyzer{
		cfg:    cfg,
		alerts: NewAlertDetector(cfg),
	}
	a.Reset()
	return a
}

// Reset discards all history, cycles and alerts.
func (a *Analyzer) Reset() {
	a.history = NewHistory(a.cfg.HistorySize)
	for _, k := range components.Kinds {
		a.trackers[k] = newOscillationTracker(k, a.cfg.OscillationMinDuration, a.cfg.OscillationMinAmplitude, a.cfg.NearExtinctionFloor)
	}
	a.cycles = nil
	a.extinctions = nil
	a.prevCounts = [components.NumKinds]int{}
	a.observed = false
	a.alerts.Reset()
}

// Observe records one snapshot. recent is the death ledger in chronological order.
func (a *Analyzer) Observe(snap PopulationSnapshot, recent []components.DeathRecord) Observation {
	var obs Observation
	a.history.Add(snap)

	var counts [components.NumKinds]int
	for _, k := range components.Kinds {
		counts[k] = snap.Count(k)
	}

	for _, k := range components.Kinds {
		if c, ok := a.trackers[k].observe(snap.Tick, counts); ok {
			a.cycles = append(a.cycles, c)
			obs.NewCycles = append(obs.NewCycles, c)
		}
		if a.observed && a.prevCounts[k] > 0 && counts[k] == 0 {
			ea := AnalyzeExtinction(k, snap.Tick, recent, a.cfg.ExtinctionLookback)
			a.extinctions = append(a.extinctions, ea)
			obs.Extinctions = append(obs.Extinctions, ea)
		}
	}
	a.prevCounts = counts
	a.observed = true

	obs.Raised, obs.Cleared = a.alerts.Check(AlertInput{
		Snapshot: snap,
		History:  a.history,
		Cycles:   a.cycles,
	})
	return obs
}

// History returns the snapshot history.
func (a *Analyzer) History() *History {
	return a.history
}

// Health scores every species over the stored history.
func (a *Analyzer) Health() PopulationHealth {
	var h PopulationHealth
	if latest, ok := a.history.Latest(); ok {
		h.Tick = latest.Tick
	}
	minViable := [components.NumKinds]int{
		a.cfg.MinViable.Grass,
		a.cfg.MinViable.Sheep,
		a.cfg.MinViable.Wolf,
	}
	var sum float64
	for _, k := range components.Kinds {
		sh := ScoreSpecies(k, a.history.Series(k), minViable[k], a.cfg.TrendWindow, a.cfg.TrendThreshold)
		h.Species[k] = sh
		sum += sh.Score
	}
	h.Overall = sum / components.NumKinds
	h.Status = statusFor(h.Overall)
	if h.Species[components.KindGrass].Status == StatusExtinct &&
		h.Species[components.KindSheep].Status == StatusExtinct &&
		h.Species[components.KindWolf].Status == StatusExtinct {
		h.Status = StatusExtinct
	}
	return h
}

// Cycles returns a copy of all confirmed cycles.
func (a *Analyzer) Cycles() []OscillationCycle {
	out := make([]OscillationCycle, len(a.cycles))
	copy(out, a.cycles)
	return out
}

// OscillationAnalysis summarises cycles and spectral properties of the history.
func (a *Analyzer) OscillationAnalysis() OscillationAnalysis {
	oa := OscillationAnalysis{Cycles: a.Cycles()}

	type lastKey struct {
		kind components.Kind
		typ  CycleType
	}
	last := make(map[lastKey]int)
	var gapSum [components.NumKinds]float64
	var gapN [components.NumKinds]int
	for _, c := range oa.Cycles {
		oa.CycleCounts[c.Kind]++
		key := lastKey{c.Kind, c.Type}
		if prev, ok := last[key]; ok {
			gapSum[c.Kind] += float64(c.TurnTick - prev)
			gapN[c.Kind]++
		}
		last[key] = c.TurnTick
	}

	for _, k := range components.Kinds {
		if gapN[k] > 0 {
			oa.MeanPeriod[k] = gapSum[k] / float64(gapN[k])
		}
		series := a.history.Series(k)
		oa.DominantPeriod[k] = DominantPeriod(series)
		oa.CurrentTrend[k] = ClassifyTrend(series, a.cfg.TrendWindow, a.cfg.TrendThreshold)
	}

	sheep := a.history.Series(components.KindSheep)
	wolves := a.history.Series(components.KindWolf)
	oa.PredatorPreyLag, oa.LagCorrelation = LaggedCorrelation(sheep, wolves, len(sheep)/2)
	return oa
}

// Extinctions returns every extinction analysis made so far.
func (a *Analyzer) Extinctions() []ExtinctionAnalysis {
	out := make([]ExtinctionAnalysis, len(a.extinctions))
	copy(out, a.extinctions)
	return out
}

// LatestExtinction returns the most recent extinction analysis.
func (a *Analyzer) LatestExtinction() (ExtinctionAnalysis, bool) {
	if len(a.extinctions) == 0 {
		return ExtinctionAnalysis{}, false
	}
	return a.extinctions[len(a.extinctions)-1], true
}

// ActiveAlerts returns the active alerts sorted by severity then kind.
func (a *Analyzer) ActiveAlerts() []Alert {
	return a.alerts.Active()
}
