package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
)

// GrowthProbability returns the chance grass grows this tick under the
// current season and temperature.
func (w *WorldGrid) GrowthProbability() float64 {
	gc := &w.cfg.Grass
	p := gc.BaseGrowthRate *
		gc.SeasonalModifiers[w.season] *
		(1 + gc.TemperatureEffect*(w.temperature-gc.BaseTemperature))
	return max(0, p)
}

func (p *StepProcessor) grassPass(rng *rand.Rand) {
	g := p.grid
	gc := &g.cfg.Grass
	growth := g.GrowthProbability()

	for _, e := range g.GetOrganismsByType(components.KindGrass) {
		if !g.Alive(e) {
			continue
		}
		vitals := g.Vitals(e)
		grass := g.Grass(e)
		vitals.Age++

		if grass.Density < 1 && rng.Float64() < growth {
			grass.Density = clamp01(grass.Density + gc.GrowthIncrement)
			vitals.Energy = grass.Density
		}

		if grass.Density >= gc.SpreadThreshold && rng.Float64() < gc.SpreadChance {
			p.spread(rng, e)
		}
	}
}

// spread seeds at most one empty neighbour cell. A seed that fails its
// viability roll is lost.
func (p *StepProcessor) spread(rng *rand.Rand, e ecs.Entity) {
	g := p.grid
	gc := &g.cfg.Grass
	to, ok := g.RandomFreeCell(rng, *g.Position(e), gc.SpreadRadius, gc.SpreadAttempts, components.KindGrass)
	if !ok {
		g.RecordPlacementFailure()
		return
	}
	if rng.Float64() >= gc.SeedViability {
		return
	}
	g.SpawnOffspring(Seed{
		Kind:     components.KindGrass,
		X:        to.X,
		Y:        to.Y,
		Density:  gc.SeedDensity,
		ParentID: g.Organism(e).ID,
	})
}
