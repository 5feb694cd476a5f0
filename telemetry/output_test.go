package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/foodchain/components"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager methods are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManager_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 50, Sheep: 10 * i, Season: "spring"}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	for tick := 0; tick < 10; tick++ {
		if err := om.WritePopulation(snap(tick, 400+tick, 30-tick, 5)); err != nil {
			t.Fatalf("WritePopulation: %v", err)
		}
	}
	rec := components.DeathRecord{
		OrganismID: 7,
		Kind:       components.KindSheep,
		Cause:      components.CauseHunting,
		Tick:       3,
		KillerID:   2,
		Repro:      &components.ReproductionState{IsPregnant: true},
	}
	if err := om.WriteDeaths([]components.DeathRecord{rec}); err != nil {
		t.Fatalf("WriteDeaths: %v", err)
	}
	if err := om.WriteCycle(OscillationCycle{Kind: components.KindWolf, Type: CycleGrowthToDecline, Peak: 20}); err != nil {
		t.Fatalf("WriteCycle: %v", err)
	}
	if err := om.WriteManifest(RunManifest{RunID: "run-1", Seed: 42, Ticks: 10}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var windows []WindowStats
	if err := readCSV(filepath.Join(dir, "telemetry.csv"), &windows); err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	if len(windows) != 2 || windows[1].Sheep != 20 || windows[1].WindowEndTick != 100 {
		t.Errorf("telemetry rows = %+v", windows)
	}

	var deaths []DeathRow
	if err := readCSV(filepath.Join(dir, "deaths.csv"), &deaths); err != nil {
		t.Fatalf("reading deaths.csv: %v", err)
	}
	if len(deaths) != 1 || deaths[0].Species != "sheep" || deaths[0].Cause != "hunting" || !deaths[0].Pregnant || deaths[0].KillerID != 2 {
		t.Errorf("death rows = %+v", deaths)
	}

	var pop []PopulationSnapshot
	if err := readCSV(filepath.Join(dir, "population.csv"), &pop); err != nil {
		t.Fatalf("reading population.csv: %v", err)
	}
	if len(pop) != 10 {
		t.Errorf("population rows = %d, want 10", len(pop))
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.yaml"))
	if err != nil {
		t.Fatalf("reading run.yaml: %v", err)
	}
	var m RunManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing run.yaml: %v", err)
	}
	if m.RunID != "run-1" || m.Seed != 42 {
		t.Errorf("manifest = %+v", m)
	}

	info, err := os.Stat(filepath.Join(dir, "population.png"))
	if err != nil {
		t.Fatalf("population.png: %v", err)
	}
	if info.Size() == 0 {
		t.Error("population.png is empty")
	}
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}

func TestChartBuffer_Decimates(t *testing.T) {
	b := newChartBuffer()
	for tick := 0; tick < 3*maxChartPoints; tick++ {
		b.add(snap(tick, 0, 0, 0))
	}
	if len(b.points) >= maxChartPoints {
		t.Errorf("kept %d points, want < %d", len(b.points), maxChartPoints)
	}
	if b.points[0].Tick != 0 {
		t.Errorf("first point tick = %d, want 0", b.points[0].Tick)
	}
	for i := 1; i < len(b.points); i++ {
		if b.points[i].Tick <= b.points[i-1].Tick {
			t.Fatalf("points out of order at %d", i)
		}
	}
}
