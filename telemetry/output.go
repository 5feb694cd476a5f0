package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// DeathRow is the flat deaths.csv record.
type DeathRow struct {
	Tick            int     `csv:"tick"`
	OrganismID      uint64  `csv:"organism_id"`
	Species         string  `csv:"species"`
	Cause           string  `csv:"cause"`
	Miscarriage     bool    `csv:"miscarriage"`
	Age             int     `csv:"age"`
	Energy          float64 `csv:"energy"`
	X               int     `csv:"x"`
	Y               int     `csv:"y"`
	KillerID        uint64  `csv:"killer_id"`
	NearbyPrey      int     `csv:"nearby_prey"`
	NearbyPredators int     `csv:"nearby_predators"`
	ResourceDensity float64 `csv:"resource_density"`
	Temperature     float64 `csv:"temperature"`
	Season          string  `csv:"season"`
	Pregnant        bool    `csv:"pregnant"`
}

// NewDeathRow flattens a ledger record.
func NewDeathRow(rec components.DeathRecord) DeathRow {
	return DeathRow{
		Tick:            rec.Tick,
		OrganismID:      rec.OrganismID,
		Species:         rec.Kind.String(),
		Cause:           string(rec.Cause),
		Miscarriage:     rec.Miscarriage,
		Age:             rec.Age,
		Energy:          rec.Energy,
		X:               rec.Position.X,
		Y:               rec.Position.Y,
		KillerID:        rec.KillerID,
		NearbyPrey:      rec.Context.NearbyPrey,
		NearbyPredators: rec.Context.NearbyPredators,
		ResourceDensity: rec.Context.ResourceDensity,
		Temperature:     rec.Context.Temperature,
		Season:          rec.Context.Season.String(),
		Pregnant:        rec.Repro != nil && rec.Repro.IsPregnant,
	}
}

// CycleRow is the flat cycles.csv record.
type CycleRow struct {
	Species     string  `csv:"species"`
	Type        string  `csv:"type"`
	StartTick   int     `csv:"start_tick"`
	TurnTick    int     `csv:"turn_tick"`
	ConfirmTick int     `csv:"confirm_tick"`
	Peak        float64 `csv:"peak"`
	Trough      float64 `csv:"trough"`
	Amplitude   float64 `csv:"amplitude"`
	Duration    int     `csv:"duration"`
	Trigger     string  `csv:"trigger"`
}

// NewCycleRow flattens a cycle.
func NewCycleRow(c OscillationCycle) CycleRow {
	return CycleRow{
		Species:     c.Kind.String(),
		Type:        string(c.Type),
		StartTick:   c.StartTick,
		TurnTick:    c.TurnTick,
		ConfirmTick: c.ConfirmTick,
		Peak:        c.Peak,
		Trough:      c.Trough,
		Amplitude:   c.Amplitude,
		Duration:    c.Duration,
		Trigger:     string(c.Trigger),
	}
}

// RunManifest describes one experiment run and is written to run.yaml.
type RunManifest struct {
	RunID       string    `yaml:"run_id"`
	Seed        int64     `yaml:"seed"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at,omitempty"`
	Ticks       int       `yaml:"ticks"`
	Extinctions []string  `yaml:"extinctions,omitempty"`
	Cycles      int       `yaml:"cycles"`
}

// csvStream is one CSV output file. The header is written with the first batch.
type csvStream struct {
	name          string
	file          *os.File
	headerWritten bool
}

func (s *csvStream) write(records any) error {
	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir string

	telemetry  *csvStream
	population *csvStream
	deaths     *csvStream
	cycles     *csvStream
	events     *csvStream
	perf       *csvStream

	chart *chartBuffer
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, chart: newChartBuffer()}
	streams := []struct {
		dst  **csvStream
		name string
	}{
		{&om.telemetry, "telemetry.csv"},
		{&om.population, "population.csv"},
		{&om.deaths, "deaths.csv"},
		{&om.cycles, "cycles.csv"},
		{&om.events, "events.csv"},
		{&om.perf, "perf.csv"},
	}
	for _, s := range streams {
		f, err := os.Create(filepath.Join(dir, s.name))
		if err != nil {
			om.closeStreams()
			return nil, fmt.Errorf("creating %s: %w", s.name, err)
		}
		*s.dst = &csvStream{name: s.name, file: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteManifest saves the run manifest as YAML.
func (om *OutputManager) WriteManifest(m RunManifest) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling run manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "run.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing run.yaml: %w", err)
	}
	return nil
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePopulation writes a per-tick snapshot to population.csv and keeps it
// for the population chart.
func (om *OutputManager) WritePopulation(s PopulationSnapshot) error {
	if om == nil {
		return nil
	}
	om.chart.add(s)
	return om.population.write([]PopulationSnapshot{s})
}

// WriteDeaths writes ledger records to deaths.csv.
func (om *OutputManager) WriteDeaths(recs []components.DeathRecord) error {
	if om == nil || len(recs) == 0 {
		return nil
	}
	rows := make([]DeathRow, len(recs))
	for i, r := range recs {
		rows[i] = NewDeathRow(r)
	}
	return om.deaths.write(rows)
}

// WriteCycle writes a confirmed cycle to cycles.csv.
func (om *OutputManager) WriteCycle(c OscillationCycle) error {
	if om == nil {
		return nil
	}
	return om.cycles.write([]CycleRow{NewCycleRow(c)})
}

// WriteEvents writes timeline events to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	return om.events.write(events)
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}

	hofPath := filepath.Join(om.dir, "hall_of_fame.json")
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}

	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}

	return nil
}

// WriteChart renders population.png from the snapshots seen so far.
func (om *OutputManager) WriteChart() error {
	if om == nil || len(om.chart.points) < 2 {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "population.png"))
	if err != nil {
		return fmt.Errorf("creating population.png: %w", err)
	}
	if err := WritePopulationChart(f, om.chart.points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close renders the chart, then flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	chartErr := om.WriteChart()
	return errors.Join(chartErr, om.closeStreams())
}

func (om *OutputManager) closeStreams() error {
	var errs []error
	for _, s := range []*csvStream{om.telemetry, om.population, om.deaths, om.cycles, om.events, om.perf} {
		if s == nil || s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.name, err))
		}
		s.file = nil
	}
	return errors.Join(errs...)
}
