package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// PhaseReproduction is the phase name reported for reproduction.
const PhaseReproduction = "reproduction"

var animalKinds = []components.Kind{components.KindSheep, components.KindWolf}

// ReproductionProcessor drives the pregnancy state machine:
// Idle -> Pregnant -> Birth | Miscarriage -> Idle (cooldown).
type ReproductionProcessor struct {
	grid  *WorldGrid
	mated map[ecs.Entity]bool
}

// NewReproductionProcessor creates a reproduction processor over grid.
func NewReproductionProcessor(grid *WorldGrid) *ReproductionProcessor {
	return &ReproductionProcessor{
		grid:  grid,
		mated: make(map[ecs.Entity]bool),
	}
}

// Process runs one tick of reproduction: pack upkeep, gestation and births,
// then new matings.
func (p *ReproductionProcessor) Process(rng *rand.Rand) {
	p.grid.UpdatePacks()
	for _, k := range animalKinds {
		p.gestate(rng, k)
	}
	clear(p.mated)
	for _, k := range animalKinds {
		p.mate(rng, k)
	}
}

// AnimalConfig returns the parameter block for an animal species.
func (w *WorldGrid) AnimalConfig(kind components.Kind) *config.AnimalConfig {
	if kind == components.KindWolf {
		return &w.cfg.Wolf.AnimalConfig
	}
	return &w.cfg.Sheep.AnimalConfig
}

func (p *ReproductionProcessor) gestate(rng *rand.Rand, kind components.Kind) {
	g := p.grid
	rc := &g.AnimalConfig(kind).Reproduction

	for _, e := range g.GetOrganismsByType(kind) {
		if !g.Alive(e) {
			continue
		}
		animal := g.Animal(e)
		if !animal.Repro.IsPregnant {
			continue
		}
		vitals := g.Vitals(e)
		vitals.Energy -= animal.Repro.EnergyCostPerTick
		if vitals.Energy <= rc.MiscarriageFloor {
			g.RecordMiscarriage(e)
			animal.Repro.Idle()
			animal.ReproCooldown = rc.CooldownPeriod
			continue
		}
		animal.Repro.GestationRemaining--
		if animal.Repro.GestationRemaining <= 0 {
			p.birth(rng, e, kind)
		}
	}
}

// birth places the litter around the parent. Offspring with no free cell in
// reach are dropped.
func (p *ReproductionProcessor) birth(rng *rand.Rand, parent ecs.Entity, kind components.Kind) {
	g := p.grid
	ac := g.AnimalConfig(kind)
	rc := &ac.Reproduction

	pos := *g.Position(parent)
	animal := *g.Animal(parent)
	template := Seed{Kind: kind, Energy: rc.OffspringEnergy, ParentID: g.Organism(parent).ID}
	switch kind {
	case components.KindSheep:
		template.FlockID = g.Sheep(parent).FlockID
	case components.KindWolf:
		if id := g.Wolf(parent).PackID; id != 0 {
			template.PackID = id
			template.Role = components.RoleOmega
		}
	}

	for range animal.Repro.ExpectedLitterSize {
		to, ok := g.RandomFreeCell(rng, pos, rc.BirthRadius, rc.BirthAttempts, kind)
		if !ok {
			g.RecordPlacementFailure()
			continue
		}
		s := template
		s.X, s.Y = to.X, to.Y
		s.Traits = Inherit(rng, animal.Traits, &ac.Inheritance)
		g.SpawnOffspring(s)
	}

	// Storage may have moved while the litter was added.
	a := g.Animal(parent)
	a.Repro.Idle()
	a.ReproCooldown = rc.CooldownPeriod
}

// Eligible reports whether an animal may start a pregnancy this tick.
func (w *WorldGrid) Eligible(e ecs.Entity) bool {
	if !w.Alive(e) {
		return false
	}
	org := w.Organism(e)
	if !org.Kind.IsAnimal() {
		return false
	}
	rc := &w.AnimalConfig(org.Kind).Reproduction
	animal := w.Animal(e)
	vitals := w.Vitals(e)
	switch {
	case animal.Repro.IsPregnant:
		return false
	case vitals.Age < rc.MinAge || vitals.Age > rc.MaxAge:
		return false
	case vitals.Energy < rc.MinEnergy:
		return false
	case animal.ReproCooldown > 0:
		return false
	case animal.Repro.LastMatingTick >= 0 && w.tick-animal.Repro.LastMatingTick < rc.CooldownPeriod:
		return false
	}
	return true
}

// MatingProbability is base_rate × (avgEnergy / maxEnergy)².
func MatingProbability(rc *config.ReproductionConfig, avgEnergy, maxEnergy float64) float64 {
	ratio := avgEnergy / maxEnergy
	return rc.BaseRate * ratio * ratio
}

func (p *ReproductionProcessor) mate(rng *rand.Rand, kind components.Kind) {
	g := p.grid
	ac := g.AnimalConfig(kind)
	rc := &ac.Reproduction

	radius := rc.MateRadius
	if kind == components.KindWolf {
		radius = g.cfg.Wolf.Pack.TerritoryRadius
	}

	for _, e := range g.GetOrganismsByType(kind) {
		if p.mated[e] || !g.Eligible(e) {
			continue
		}
		partner, ok := g.FindInRadius(*g.Position(e), radius, kind, func(o ecs.Entity) bool {
			return o != e && !p.mated[o] && g.Eligible(o) && p.compatible(e, o)
		})
		if !ok {
			continue
		}

		avg := (g.Vitals(e).Energy + g.Vitals(partner).Energy) / 2
		if rng.Float64() >= MatingProbability(rc, avg, ac.MaxEnergy) {
			continue
		}

		litter := rc.LitterMin + rng.Intn(rc.LitterMax-rc.LitterMin+1)
		seeker := g.Animal(e)
		seeker.Repro = components.ReproductionState{
			IsPregnant:         true,
			GestationRemaining: rc.GestationPeriod,
			ExpectedLitterSize: litter,
			EnergyCostPerTick:  rc.EnergyCost / float64(rc.GestationPeriod),
			MateID:             g.Organism(partner).ID,
			LastMatingTick:     g.tick,
		}
		g.Animal(partner).Repro.LastMatingTick = g.tick

		p.mated[e] = true
		p.mated[partner] = true
		g.events.RecordMating(kind)
	}
}

// compatible applies the wolf pack rules. Sheep pair freely.
func (p *ReproductionProcessor) compatible(a, b ecs.Entity) bool {
	g := p.grid
	if g.Organism(a).Kind != components.KindWolf {
		return true
	}
	wa, wb := g.Wolf(a), g.Wolf(b)
	if g.cfg.Wolf.Pack.AlphaBreedingOnly {
		return wa.PackID != 0 && wa.PackID == wb.PackID &&
			wa.Role == components.RoleAlpha && wb.Role == components.RoleAlpha
	}
	if wa.PackID != 0 {
		return g.InTerritory(wa.PackID, *g.Position(b))
	}
	return true
}
