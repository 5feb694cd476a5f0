package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
)

// grazedOut is the density below which grazed grass is gone.
const grazedOut = 1e-9

func (p *StepProcessor) sheepPass(rng *rand.Rand) {
	g := p.grid
	sc := &g.cfg.Sheep

	for _, e := range g.GetOrganismsByType(components.KindSheep) {
		if !g.Alive(e) {
			continue
		}
		if !p.ageAnimal(e, &sc.AnimalConfig) {
			continue
		}
		if p.flee(rng, e) {
			continue
		}
		if g.Animal(e).Hunger >= sc.HungerThreshold {
			if p.graze(e) || p.seekGrass(e) {
				continue
			}
		}
		p.randomMove(rng, e, sc.MovementRange, sc.MoveAttempts, components.KindSheep, components.KindWolf)
	}
}

// flee moves the sheep the full movement range away from the first wolf in
// detection range, with probability flee_chance. Fleeing uses the turn even
// when the escape cell is taken; a sheep that does not bolt carries on as if
// no wolf were near.
func (p *StepProcessor) flee(rng *rand.Rand, e ecs.Entity) bool {
	g := p.grid
	sc := &g.cfg.Sheep
	pos := *g.Position(e)
	wolf, ok := g.FindInRadius(pos, sc.WolfDetectionRadius, components.KindWolf, nil)
	if !ok {
		return false
	}
	if sc.FleeChance < 1 && rng.Float64() >= sc.FleeChance {
		return false
	}
	to := g.stepAway(pos, *g.Position(wolf), sc.MovementRange)
	g.MoveTo(e, to)
	return true
}

// graze eats the grass in the sheep's own cell, if any.
func (p *StepProcessor) graze(e ecs.Entity) bool {
	g := p.grid
	sc := &g.cfg.Sheep
	pos := g.Position(e)
	grassE := g.cell(pos.X, pos.Y).Grass
	if grassE == noEntity {
		return false
	}

	grass := g.Grass(grassE)
	consumed := min(sc.GrazingAmount, grass.Density)
	grass.Density -= consumed
	grass.LastGrazed = g.tick
	g.Vitals(grassE).Energy = grass.Density

	animal := g.Animal(e)
	vitals := g.Vitals(e)
	vitals.Energy = min(sc.MaxEnergy, vitals.Energy+consumed*sc.EnergyPerGrass*animal.Traits.Efficiency)
	animal.Hunger = 0
	g.events.RecordGraze(g.Organism(e).ID, consumed)

	if grass.Density <= grazedOut {
		grass.Density = 0
		g.Kill(grassE, components.CauseGrazing, g.Organism(e).ID)
	}
	return true
}

// seekGrass steps toward the first grass found in the food search radius.
func (p *StepProcessor) seekGrass(e ecs.Entity) bool {
	g := p.grid
	sc := &g.cfg.Sheep
	pos := *g.Position(e)
	food, ok := g.FindInRadius(pos, sc.FoodSearchRadius, components.KindGrass, nil)
	if !ok {
		return false
	}
	g.MoveTo(e, g.stepToward(pos, *g.Position(food), sc.MovementRange))
	return true
}
