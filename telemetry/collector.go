package telemetry

import "github.com/pthm-cable/foodchain/components"

// WorldSample is the end-of-window world state the caller supplies to Flush.
type WorldSample struct {
	Tick             int
	Season           components.Season
	Temperature      float64
	Counts           [components.NumKinds]int
	SheepEnergies    []float64
	WolfEnergies     []float64
	MeanGrassDensity float64
	Pregnant         [components.NumKinds]int
	ActiveFlocks     int
	ActivePacks      int
}

// Collector accumulates events within windows of ticks and produces WindowStats.
// It implements systems.EventSink.
type Collector struct {
	windowDurationTicks int

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	births        [components.NumKinds]int
	deaths        [components.NumKinds]int
	deathsByCause map[components.DeathCause]int
	kills         int
	grazed        float64
	matings       int
	miscarriages  int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: windowTicks,
		deathsByCause:       make(map[components.DeathCause]int),
	}
}

// RecordBirth records a birth or a sprouted seed.
func (c *Collector) RecordBirth(kind components.Kind, _, _ uint64) {
	c.births[kind]++
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(rec components.DeathRecord) {
	c.deaths[rec.Kind]++
	c.deathsByCause[rec.Cause]++
}

// RecordKill records a sheep eaten by a wolf.
func (c *Collector) RecordKill(uint64) {
	c.kills++
}

// RecordGraze records grass density consumed by a sheep.
func (c *Collector) RecordGraze(_ uint64, amount float64) {
	c.grazed += amount
}

// RecordMating records a successful mating.
func (c *Collector) RecordMating(components.Kind) {
	c.matings++
}

// RecordMiscarriage records a failed pregnancy.
func (c *Collector) RecordMiscarriage(components.DeathRecord) {
	c.miscarriages++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(sample WorldSample) WindowStats {
	sheepMean, sheepP10, sheepP50, sheepP90 := ComputeEnergyStats(sample.SheepEnergies)
	wolfMean, wolfP10, wolfP50, wolfP90 := ComputeEnergyStats(sample.WolfEnergies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   sample.Tick,
		Season:          sample.Season.String(),

		Grass:  sample.Counts[components.KindGrass],
		Sheep:  sample.Counts[components.KindSheep],
		Wolves: sample.Counts[components.KindWolf],

		GrassSprouts: c.births[components.KindGrass],
		SheepBirths:  c.births[components.KindSheep],
		WolfBirths:   c.births[components.KindWolf],
		GrassDeaths:  c.deaths[components.KindGrass],
		SheepDeaths:  c.deaths[components.KindSheep],
		WolfDeaths:   c.deaths[components.KindWolf],

		DeathsAge:        c.deathsByCause[components.CauseAge],
		DeathsStarvation: c.deathsByCause[components.CauseStarvation],
		DeathsHunger:     c.deathsByCause[components.CauseHunger],
		DeathsGrazing:    c.deathsByCause[components.CauseGrazing],
		DeathsHunting:    c.deathsByCause[components.CauseHunting],

		Kills:         c.kills,
		GrassConsumed: c.grazed,
		Matings:       c.matings,
		Miscarriages:  c.miscarriages,
		SheepPregnant: sample.Pregnant[components.KindSheep],
		WolfPregnant:  sample.Pregnant[components.KindWolf],

		SheepEnergyMean: sheepMean,
		SheepEnergyP10:  sheepP10,
		SheepEnergyP50:  sheepP50,
		SheepEnergyP90:  sheepP90,

		WolfEnergyMean: wolfMean,
		WolfEnergyP10:  wolfP10,
		WolfEnergyP50:  wolfP50,
		WolfEnergyP90:  wolfP90,

		MeanGrassDensity: sample.MeanGrassDensity,
		Temperature:      sample.Temperature,

		ActiveFlocks: sample.ActiveFlocks,
		ActivePacks:  sample.ActivePacks,
	}

	// Reset for next window
	c.windowStartTick = sample.Tick
	c.births = [components.NumKinds]int{}
	c.deaths = [components.NumKinds]int{}
	clear(c.deathsByCause)
	c.kills = 0
	c.grazed = 0
	c.matings = 0
	c.miscarriages = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}
