package game

import (
	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
	"github.com/pthm-cable/foodchain/systems"
)

// maxPlacementTries bounds the random probes for one founder's cell.
const maxPlacementTries = 100

// seedWorld populates an empty grid and returns how many of each species
// were placed.
func (s *Simulation) seedWorld() [components.NumKinds]int {
	var placed [components.NumKinds]int
	placed[components.KindGrass] = s.seedGrass()
	placed[components.KindSheep] = s.seedSheep()
	placed[components.KindWolf] = s.seedWolves()
	return placed
}

// seedGrass covers each cell with probability initial_coverage.
func (s *Simulation) seedGrass() int {
	gc := &s.cfg.Grass
	n := 0
	for y := range s.grid.Height() {
		for x := range s.grid.Width() {
			if s.rng.Float64() >= gc.InitialCoverage {
				continue
			}
			density := gc.InitialDensityMin + s.rng.Float64()*(gc.InitialDensityMax-gc.InitialDensityMin)
			if _, ok := s.grid.PlaceOrganism(systems.Seed{
				Kind:    components.KindGrass,
				X:       x,
				Y:       y,
				Density: density,
			}); ok {
				n++
			}
		}
	}
	return n
}

// seedSheep places the initial herd, grouping consecutive founders into
// flocks of flock_size.
func (s *Simulation) seedSheep() int {
	sc := &s.cfg.Sheep
	n := 0
	var flock uint32
	for i := range sc.InitialCount {
		if sc.FlockSize > 0 && i%sc.FlockSize == 0 {
			flock = s.grid.NewFlock()
		}
		x, y, ok := s.freeCell(components.KindSheep)
		if !ok {
			s.grid.RecordPlacementFailure()
			continue
		}
		if s.placeFounder(systems.Seed{
			Kind:    components.KindSheep,
			X:       x,
			Y:       y,
			Energy:  sc.InitialEnergy,
			Age:     s.founderAge(&sc.AnimalConfig),
			FlockID: flock,
		}) {
			n++
		}
	}
	return n
}

// seedWolves places the initial wolves in packs of pack.size. The first two
// members of each pack are alphas and the territory is centred on the first.
func (s *Simulation) seedWolves() int {
	wc := &s.cfg.Wolf
	n := 0
	var pack uint32
	member := 0
	for i := range wc.InitialCount {
		x, y, ok := s.freeCell(components.KindWolf)
		if !ok {
			s.grid.RecordPlacementFailure()
			continue
		}
		seed := systems.Seed{
			Kind:   components.KindWolf,
			X:      x,
			Y:      y,
			Energy: wc.InitialEnergy,
			Age:    s.founderAge(&wc.AnimalConfig),
		}
		if wc.Pack.Size > 0 {
			if i%wc.Pack.Size == 0 {
				pack = s.grid.NewPack(components.Position{X: x, Y: y})
				member = 0
			}
			seed.PackID = pack
			seed.Role = components.RoleOmega
			if member < 2 {
				seed.Role = components.RoleAlpha
			}
			member++
		}
		if s.placeFounder(seed) {
			n++
		}
	}
	return n
}

// placeFounder places an animal and registers it with the lifetime tracker.
func (s *Simulation) placeFounder(seed systems.Seed) bool {
	e, ok := s.grid.PlaceOrganism(seed)
	if !ok {
		return false
	}
	s.lifetimes.Register(s.grid.Organism(e).ID, seed.Kind, 0, s.grid.Tick()-seed.Age)
	return true
}

// founderAge draws a starting age in [0, reproduction.min_age].
func (s *Simulation) founderAge(ac *config.AnimalConfig) int {
	if ac.Reproduction.MinAge < 1 {
		return 0
	}
	return s.rng.Intn(ac.Reproduction.MinAge + 1)
}

// freeCell probes random cells for one without an organism of kind.
func (s *Simulation) freeCell(kind components.Kind) (x, y int, ok bool) {
	for range maxPlacementTries {
		x, y = s.rng.Intn(s.grid.Width()), s.rng.Intn(s.grid.Height())
		if !s.grid.Occupied(x, y, kind) {
			return x, y, true
		}
	}
	return 0, 0, false
}
