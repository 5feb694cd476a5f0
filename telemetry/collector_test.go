package telemetry

import (
	"testing"

	"github.com/pthm-cable/foodchain/components"
)

func TestCollector_FlushAndReset(t *testing.T) {
	c := NewCollector(10)

	c.RecordBirth(components.KindSheep, 10, 1)
	c.RecordBirth(components.KindSheep, 11, 1)
	c.RecordBirth(components.KindGrass, 12, 2)
	c.RecordDeath(components.DeathRecord{Kind: components.KindSheep, Cause: components.CauseHunting})
	c.RecordDeath(components.DeathRecord{Kind: components.KindGrass, Cause: components.CauseGrazing})
	c.RecordDeath(components.DeathRecord{Kind: components.KindWolf, Cause: components.CauseAge})
	c.RecordKill(7)
	c.RecordGraze(3, 0.25)
	c.RecordGraze(3, 0.5)
	c.RecordMating(components.KindWolf)
	c.RecordMiscarriage(components.DeathRecord{Kind: components.KindSheep, Miscarriage: true})

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true before the window elapsed")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("ShouldFlush(10) = false at the window boundary")
	}

	stats := c.Flush(WorldSample{
		Tick:          10,
		Season:        components.SeasonSummer,
		Counts:        [components.NumKinds]int{200, 30, 6},
		SheepEnergies: []float64{10, 20, 30},
		Pregnant:      [components.NumKinds]int{0, 2, 1},
		ActivePacks:   2,
	})

	checks := []struct {
		name      string
		got, want int
	}{
		{"SheepBirths", stats.SheepBirths, 2},
		{"GrassSprouts", stats.GrassSprouts, 1},
		{"SheepDeaths", stats.SheepDeaths, 1},
		{"GrassDeaths", stats.GrassDeaths, 1},
		{"WolfDeaths", stats.WolfDeaths, 1},
		{"DeathsHunting", stats.DeathsHunting, 1},
		{"DeathsGrazing", stats.DeathsGrazing, 1},
		{"DeathsAge", stats.DeathsAge, 1},
		{"Kills", stats.Kills, 1},
		{"Matings", stats.Matings, 1},
		{"Miscarriages", stats.Miscarriages, 1},
		{"Sheep", stats.Sheep, 30},
		{"SheepPregnant", stats.SheepPregnant, 2},
		{"ActivePacks", stats.ActivePacks, 2},
		{"WindowStartTick", stats.WindowStartTick, 0},
		{"WindowEndTick", stats.WindowEndTick, 10},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if stats.GrassConsumed != 0.75 {
		t.Errorf("GrassConsumed = %v, want 0.75", stats.GrassConsumed)
	}
	if stats.SheepEnergyMean != 20 || stats.SheepEnergyP50 != 20 {
		t.Errorf("sheep energy mean/p50 = %v/%v, want 20/20", stats.SheepEnergyMean, stats.SheepEnergyP50)
	}
	if stats.Season != "summer" {
		t.Errorf("Season = %q, want summer", stats.Season)
	}

	// Counters reset, window advances.
	next := c.Flush(WorldSample{Tick: 20})
	if next.SheepBirths != 0 || next.Kills != 0 || next.DeathsHunting != 0 || next.GrassConsumed != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("WindowStartTick = %d, want 10", next.WindowStartTick)
	}
	if c.ShouldFlush(25) {
		t.Error("ShouldFlush(25) = true mid-window")
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, components.KindWolf, 0, 0)
	lt.Register(2, components.KindWolf, 1, 30)
	lt.Register(3, components.KindGrass, 0, 0)

	if lt.Count() != 2 {
		t.Fatalf("Count = %d, want 2 (grass is not tracked)", lt.Count())
	}
	lt.RecordKill(1)
	lt.RecordKill(1)
	lt.RecordGraze(99, 1) // unknown id is ignored

	s := lt.Remove(components.DeathRecord{OrganismID: 1, Tick: 100, Cause: components.CauseAge})
	if s == nil {
		t.Fatal("Remove returned nil for a tracked wolf")
	}
	if s.Children != 1 || s.Kills != 2 || s.Lifespan() != 100 || s.Cause != components.CauseAge {
		t.Errorf("stats = %+v", s)
	}
	if lt.Get(1) != nil {
		t.Error("stats still present after Remove")
	}
}

func TestHallOfFame_KeepsFittest(t *testing.T) {
	hof := NewHallOfFame(2)

	idle := &LifetimeStats{ID: 1, Kind: components.KindSheep, DeathTick: 50}
	if hof.Consider(idle) {
		t.Error("organism with no achievements entered the hall")
	}

	for i, children := range []int{1, 5, 3} {
		s := &LifetimeStats{ID: uint64(10 + i), Kind: components.KindSheep, Children: children, DeathTick: 100}
		hof.Consider(s)
	}
	entries := hof.Entries(components.KindSheep)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want capacity 2", len(entries))
	}
	if entries[0].ID != 11 || entries[1].ID != 12 {
		t.Errorf("order = %d, %d, want 11, 12", entries[0].ID, entries[1].ID)
	}
	if hof.TopFitness(components.KindSheep) != entries[0].Fitness {
		t.Error("TopFitness does not match the first entry")
	}
	if hof.TopFitness(components.KindWolf) != 0 {
		t.Error("empty wolf hall should report 0")
	}
}
