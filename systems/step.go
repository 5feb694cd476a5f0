package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// Step phase names, reported through StepProcessor.OnPhase.
const (
	PhaseGrass = "grass"
	PhaseSheep = "sheep"
	PhaseWolf  = "wolf"
)

// StepProcessor runs the per-tick behavior pipeline: grass, then sheep, then
// wolves. Each pass iterates a snapshot taken when the pass starts, so
// organisms born or killed mid-pass are never processed twice.
type StepProcessor struct {
	grid    *WorldGrid
	running bool

	// OnPhase, if set, is called before each pass with its phase name.
	OnPhase func(phase string)
}

// NewStepProcessor creates a step processor over grid.
func NewStepProcessor(grid *WorldGrid) *StepProcessor {
	return &StepProcessor{grid: grid}
}

// Step advances organism behavior by one tick. It must not be called
// concurrently or re-entered.
func (p *StepProcessor) Step(rng *rand.Rand) {
	if p.running {
		panic("systems: StepProcessor.Step re-entered")
	}
	p.running = true
	defer func() { p.running = false }()

	p.phase(PhaseGrass)
	p.grassPass(rng)
	p.phase(PhaseSheep)
	p.sheepPass(rng)
	p.phase(PhaseWolf)
	p.wolfPass(rng)
}

func (p *StepProcessor) phase(name string) {
	if p.OnPhase != nil {
		p.OnPhase(name)
	}
}

// ageAnimal applies one tick of aging and metabolism, then the death policy.
// It returns false if the animal died.
func (p *StepProcessor) ageAnimal(e ecs.Entity, ac *config.AnimalConfig) bool {
	g := p.grid
	vitals := g.Vitals(e)
	animal := g.Animal(e)

	vitals.Age++
	animal.Hunger++
	if animal.ReproCooldown > 0 {
		animal.ReproCooldown--
	}
	vitals.Energy -= ac.EnergyPerStep / animal.Traits.EnergyEfficiency

	if cause, dead := deathCause(vitals, animal, ac); dead {
		g.Kill(e, cause, 0)
		return false
	}
	return true
}

// deathCause applies the death policy. Conditions are checked in a fixed
// order and only the first match is reported.
func deathCause(v *components.Vitals, a *components.Animal, ac *config.AnimalConfig) (components.DeathCause, bool) {
	switch {
	case v.Age >= a.Traits.MaxLifespan:
		return components.CauseAge, true
	case v.Energy <= 0:
		return components.CauseStarvation, true
	case a.Hunger >= 2*ac.HungerThreshold:
		return components.CauseHunger, true
	}
	return "", false
}

// randomMove tries up to attempts random targets within the movement range,
// skipping cells that hold any animal that would block kind.
func (p *StepProcessor) randomMove(rng *rand.Rand, e ecs.Entity, rangeCells, attempts int, blockers ...components.Kind) {
	if rangeCells < 1 {
		return
	}
	g := p.grid
	pos := *g.Position(e)
	span := 2*rangeCells + 1
	for range attempts {
		to := pos.Add(rng.Intn(span)-rangeCells, rng.Intn(span)-rangeCells)
		if to == pos || !g.InBounds(to.X, to.Y) || blocked(g, to, blockers) {
			continue
		}
		g.MoveTo(e, to)
		return
	}
}

func blocked(g *WorldGrid, to components.Position, kinds []components.Kind) bool {
	for _, k := range kinds {
		if g.Occupied(to.X, to.Y, k) {
			return true
		}
	}
	return false
}
