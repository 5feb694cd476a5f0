// Package game drives the food-chain world: it seeds the grid, advances it
// one tick at a time and feeds the analyzer and telemetry outputs.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
	"github.com/pthm-cable/foodchain/systems"
	"github.com/pthm-cable/foodchain/telemetry"
)

// hallOfFameSize is the number of animals kept per species.
const hallOfFameSize = 10

// Options configures a new simulation.
type Options struct {
	Config        *config.Config // nil = config.Cfg()
	Seed          int64
	RunID         string
	OutputDir     string // empty disables file output
	LogStats      bool
	StatsCallback func(telemetry.WindowStats)
}

// Simulation owns the world and every observer attached to it.
type Simulation struct {
	cfg   *config.Config
	runID string
	seed  int64
	rng   *rand.Rand

	grid  *systems.WorldGrid
	step  *systems.StepProcessor
	repro *systems.ReproductionProcessor

	analyzer   *telemetry.Analyzer
	collector  *telemetry.Collector
	perf       *telemetry.PerfCollector
	lifetimes  *telemetry.LifetimeTracker
	hallOfFame *telemetry.HallOfFame
	output     *telemetry.OutputManager

	logStats      bool
	statsCallback func(telemetry.WindowStats)

	pendingDeaths []components.DeathRecord

	running   bool
	stepping  bool
	startedAt time.Time
	ticksRun  int
}

// NewSimulation builds and seeds a world. It fails on malformed configuration
// or when the output directory cannot be prepared.
func NewSimulation(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:           cfg,
		runID:         opts.RunID,
		output:        output,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		startedAt:     time.Now(),
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, err
	}
	if err := s.Reset(opts.Seed); err != nil {
		s.output.Close()
		return nil, err
	}
	return s, nil
}

// Reset discards the world and every observer and reseeds from seed. File
// output continues in the same directory.
func (s *Simulation) Reset(seed int64) error {
	if s.stepping {
		return errors.New("simulation: Reset called during Step")
	}
	grid, err := systems.NewWorldGrid(s.cfg)
	if err != nil {
		return err
	}

	s.seed = seed
	s.rng = rand.New(rand.NewSource(seed))
	s.grid = grid
	s.step = systems.NewStepProcessor(grid)
	s.repro = systems.NewReproductionProcessor(grid)
	s.analyzer = telemetry.NewAnalyzer(&s.cfg.Analysis)
	s.collector = telemetry.NewCollector(s.cfg.Telemetry.StatsWindow)
	s.perf = telemetry.NewPerfCollector(s.cfg.Telemetry.PerfCollectorWindow)
	s.lifetimes = telemetry.NewLifetimeTracker()
	s.hallOfFame = telemetry.NewHallOfFame(hallOfFameSize)
	s.pendingDeaths = nil
	s.running = false
	s.ticksRun = 0

	s.step.OnPhase = s.perf.StartPhase
	grid.SetEventSink(&telemetrySink{sim: s})

	placed := s.seedWorld()
	grid.UpdatePacks()
	grid.UpdateStatistics()
	if err := grid.CheckInvariants(); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	s.analyzer.Observe(s.snapshot(), nil)

	slog.Info("world seeded",
		"seed", seed,
		"width", grid.Width(),
		"height", grid.Height(),
		"grass", placed[components.KindGrass],
		"sheep", placed[components.KindSheep],
		"wolves", placed[components.KindWolf],
	)
	return nil
}

// Start resumes ticking on Update.
func (s *Simulation) Start() { s.running = true }

// Pause stops ticking on Update.
func (s *Simulation) Pause() { s.running = false }

// Running reports whether Update advances the world.
func (s *Simulation) Running() bool { return s.running }

// Update advances one tick if the simulation is running.
func (s *Simulation) Update() error {
	if !s.running {
		return nil
	}
	return s.Step()
}

// Step advances the world by exactly one tick whether or not it is running.
// An invariant violation pauses the simulation and is returned.
func (s *Simulation) Step() error {
	if s.stepping {
		return errors.New("simulation: Step re-entered")
	}
	s.stepping = true
	defer func() { s.stepping = false }()

	s.perf.StartTick()

	s.step.Step(s.rng)

	s.perf.StartPhase(telemetry.PhaseReproduction)
	s.repro.Process(s.rng)

	s.perf.StartPhase(telemetry.PhaseStatistics)
	s.grid.UpdateStatistics()
	s.grid.IncrementTick()
	s.ticksRun++
	if err := s.grid.CheckInvariants(); err != nil {
		s.running = false
		s.perf.EndTick()
		slog.Error("world invariant violated", "tick", s.grid.Tick(), "error", err)
		return fmt.Errorf("tick %d: %w", s.grid.Tick(), err)
	}

	s.perf.StartPhase(telemetry.PhaseAnalysis)
	snap := s.snapshot()
	obs := s.analyzer.Observe(snap, s.grid.Deaths().Recent())

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.recordObservation(snap, obs)
	s.flushTelemetry()

	s.perf.EndTick()
	return nil
}

// Run steps the world n times, stopping at the first error.
func (s *Simulation) Run(n int) error {
	for range n {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the run manifest and hall of fame, renders the population
// chart and closes every output file.
func (s *Simulation) Close() error {
	if s.output == nil {
		return nil
	}
	var extinct []string
	for _, ea := range s.analyzer.Extinctions() {
		extinct = append(extinct, fmt.Sprintf("%s@%d", ea.Kind, ea.Tick))
	}
	manifest := telemetry.RunManifest{
		RunID:       s.runID,
		Seed:        s.seed,
		StartedAt:   s.startedAt,
		FinishedAt:  time.Now(),
		Ticks:       s.grid.Tick(),
		Extinctions: extinct,
		Cycles:      len(s.analyzer.Cycles()),
	}
	err := errors.Join(
		s.output.WriteManifest(manifest),
		s.output.WriteHallOfFame(s.hallOfFame),
		s.output.Close(),
	)
	s.output = nil
	return err
}

// CurrentTick returns the world clock.
func (s *Simulation) CurrentTick() int { return s.grid.Tick() }

// Seed returns the seed of the current world.
func (s *Simulation) Seed() int64 { return s.seed }

// Statistics returns the aggregates of the last completed tick.
func (s *Simulation) Statistics() systems.Statistics { return s.grid.Statistics() }

// PopulationHealth scores every species over the analyzer history.
func (s *Simulation) PopulationHealth() telemetry.PopulationHealth { return s.analyzer.Health() }

// ActiveAlerts returns the alerts whose condition currently holds.
func (s *Simulation) ActiveAlerts() []telemetry.Alert { return s.analyzer.ActiveAlerts() }

// OscillationAnalysis summarises the population cycles seen so far.
func (s *Simulation) OscillationAnalysis() telemetry.OscillationAnalysis {
	return s.analyzer.OscillationAnalysis()
}

// LatestExtinctionAnalysis returns the most recent extinction assessment.
func (s *Simulation) LatestExtinctionAnalysis() (telemetry.ExtinctionAnalysis, bool) {
	return s.analyzer.LatestExtinction()
}

// HallOfFame returns the fittest animals that have died so far.
func (s *Simulation) HallOfFame() *telemetry.HallOfFame { return s.hallOfFame }

// World exposes the grid for read access. Callers must not mutate it.
func (s *Simulation) World() *systems.WorldGrid { return s.grid }

// snapshot builds the analyzer sample from the last statistics recount.
func (s *Simulation) snapshot() telemetry.PopulationSnapshot {
	st := s.grid.Statistics()
	return telemetry.PopulationSnapshot{
		Tick:             s.grid.Tick(),
		Season:           s.grid.Season().String(),
		Grass:            st.Counts[components.KindGrass],
		Sheep:            st.Counts[components.KindSheep],
		Wolves:           st.Counts[components.KindWolf],
		AvgGrassDensity:  st.AverageGrassDensity,
		AvgSheepEnergy:   st.AverageEnergy[components.KindSheep],
		AvgWolfEnergy:    st.AverageEnergy[components.KindWolf],
		Temperature:      s.grid.Temperature(),
		PlacementFailure: st.PlacementFailures,
	}
}
