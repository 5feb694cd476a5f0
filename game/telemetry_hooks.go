package game

import (
	"log/slog"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/telemetry"
)

// telemetrySink fans world events out to the window collector and the
// per-animal lifetime tracker, and buffers death records for deaths.csv.
type telemetrySink struct {
	sim *Simulation
}

func (t *telemetrySink) RecordBirth(kind components.Kind, id, parentID uint64) {
	t.sim.collector.RecordBirth(kind, id, parentID)
	t.sim.lifetimes.Register(id, kind, parentID, t.sim.grid.Tick())
}

func (t *telemetrySink) RecordDeath(rec components.DeathRecord) {
	t.sim.collector.RecordDeath(rec)
	t.sim.pendingDeaths = append(t.sim.pendingDeaths, rec)
	if stats := t.sim.lifetimes.Remove(rec); stats != nil {
		t.sim.hallOfFame.Consider(stats)
	}
}

func (t *telemetrySink) RecordKill(wolfID uint64) {
	t.sim.collector.RecordKill(wolfID)
	t.sim.lifetimes.RecordKill(wolfID)
}

func (t *telemetrySink) RecordGraze(sheepID uint64, amount float64) {
	t.sim.collector.RecordGraze(sheepID, amount)
	t.sim.lifetimes.RecordGraze(sheepID, amount)
}

func (t *telemetrySink) RecordMating(kind components.Kind) {
	t.sim.collector.RecordMating(kind)
}

func (t *telemetrySink) RecordMiscarriage(rec components.DeathRecord) {
	t.sim.collector.RecordMiscarriage(rec)
	t.sim.pendingDeaths = append(t.sim.pendingDeaths, rec)
}

// recordObservation writes the per-tick outputs and logs what the analyzer
// found on this tick.
func (s *Simulation) recordObservation(snap telemetry.PopulationSnapshot, obs telemetry.Observation) {
	if err := s.output.WritePopulation(snap); err != nil {
		slog.Error("failed to write population", "error", err)
	}
	if err := s.output.WriteDeaths(s.pendingDeaths); err != nil {
		slog.Error("failed to write deaths", "error", err)
	}
	s.pendingDeaths = s.pendingDeaths[:0]

	for _, c := range obs.NewCycles {
		if s.logStats {
			c.LogCycle()
		}
		if err := s.output.WriteCycle(c); err != nil {
			slog.Error("failed to write cycle", "error", err)
		}
	}
	for _, ea := range obs.Extinctions {
		// Extinctions are always logged.
		ea.LogAnalysis()
	}
	if s.logStats {
		for _, a := range obs.Raised {
			a.LogAlert()
		}
	}
	if err := s.output.WriteEvents(telemetry.ObservationEvents(snap.Tick, obs)); err != nil {
		slog.Error("failed to write events", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed.
func (s *Simulation) flushTelemetry() {
	tick := s.grid.Tick()
	if !s.collector.ShouldFlush(tick) {
		return
	}

	stats := s.collector.Flush(s.sampleWorld())
	perfStats := s.perf.Stats()

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
		slog.Info("health", "tick", tick, "health", s.analyzer.Health())
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// sampleWorld collects the energy distributions and aggregates the collector
// needs at the end of a window.
func (s *Simulation) sampleWorld() telemetry.WorldSample {
	st := s.grid.Statistics()
	return telemetry.WorldSample{
		Tick:             s.grid.Tick(),
		Season:           s.grid.Season(),
		Temperature:      s.grid.Temperature(),
		Counts:           st.Counts,
		SheepEnergies:    s.energies(components.KindSheep),
		WolfEnergies:     s.energies(components.KindWolf),
		MeanGrassDensity: st.AverageGrassDensity,
		Pregnant:         st.Pregnant,
		ActiveFlocks:     st.ActiveFlocks,
		ActivePacks:      st.ActivePacks,
	}
}

func (s *Simulation) energies(kind components.Kind) []float64 {
	animals := s.grid.GetOrganismsByType(kind)
	out := make([]float64, len(animals))
	for i, e := range animals {
		out[i] = s.grid.Vitals(e).Energy
	}
	return out
}
