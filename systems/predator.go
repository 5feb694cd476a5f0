package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
)

func (p *StepProcessor) wolfPass(rng *rand.Rand) {
	g := p.grid
	wc := &g.cfg.Wolf

	for _, e := range g.GetOrganismsByType(components.KindWolf) {
		if !g.Alive(e) {
			continue
		}
		if !p.ageAnimal(e, &wc.AnimalConfig) {
			continue
		}
		hungry := g.Animal(e).Hunger >= wc.HungerThreshold
		if hungry && p.hunt(e) {
			continue
		}
		if p.scout(e, hungry) {
			continue
		}
		p.randomMove(rng, e, wc.MovementRange, wc.MoveAttempts, components.KindWolf)
	}
}

// HuntingRadius returns the hunting radius scaled by a wolf's skill, at least 1.
func (w *WorldGrid) HuntingRadius(skill float64) int {
	return max(1, int(math.Round(float64(w.cfg.Wolf.HuntingRadius)*skill)))
}

// hunt eats the first sheep within reach or closes in on it.
func (p *StepProcessor) hunt(e ecs.Entity) bool {
	g := p.grid
	wc := &g.cfg.Wolf
	animal := g.Animal(e)
	wolf := g.Wolf(e)
	pos := *g.Position(e)

	prey, ok := g.FindInRadius(pos, g.HuntingRadius(animal.Traits.Efficiency), components.KindSheep, nil)
	if !ok {
		wolf.TargetID = 0
		return false
	}

	preyPos := *g.Position(prey)
	if pos.Chebyshev(preyPos) <= 1 {
		g.Kill(prey, components.CauseHunting, g.Organism(e).ID)
		vitals := g.Vitals(e)
		vitals.Energy = min(wc.MaxEnergy, vitals.Energy+wc.EnergyPerSheep)
		animal.Hunger = 0
		wolf.TargetID = 0
		g.events.RecordKill(g.Organism(e).ID)
		return true
	}

	wolf.TargetID = g.Organism(prey).ID
	g.MoveTo(e, g.stepAdjacent(pos, preyPos, wc.MovementRange))
	return true
}

// scout moves toward the first sheep within the scouting radius, which
// shrinks when the wolf is not hungry.
func (p *StepProcessor) scout(e ecs.Entity, hungry bool) bool {
	g := p.grid
	wc := &g.cfg.Wolf
	radius := wc.ScoutingRadius
	if !hungry {
		radius = int(math.Round(float64(radius) * wc.SatiatedScoutingFactor))
	}
	if radius < 1 {
		return false
	}
	pos := *g.Position(e)
	prey, ok := g.FindInRadius(pos, radius, components.KindSheep, nil)
	if !ok {
		return false
	}
	g.MoveTo(e, g.stepToward(pos, *g.Position(prey), wc.MovementRange))
	return true
}
