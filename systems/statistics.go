package systems

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pthm-cable/foodchain/components"
)

// ErrInvariant is returned when the world is found in an inconsistent state.
var ErrInvariant = errors.New("world invariant violated")

// ExtinctionEvent marks the tick a species count fell to zero.
type ExtinctionEvent struct {
	Tick int // the tick the last member died in, as in the death ledger
	Kind components.Kind
}

// Statistics is the aggregate state of the world after a recount.
type Statistics struct {
	Tick                int // matches Tick() once IncrementTick follows the recount
	Counts              [components.NumKinds]int
	TotalEnergy         [components.NumKinds]float64
	AverageEnergy       [components.NumKinds]float64
	AverageGrassDensity float64
	Pregnant            [components.NumKinds]int
	ActivePacks         int
	ActiveFlocks        int
	Births              [components.NumKinds]int // cumulative
	PlacementFailures   int                      // cumulative
	Deaths              DeathStatistics
	ExtinctionEvents    []ExtinctionEvent
}

// Clone returns a deep copy.
func (s Statistics) Clone() Statistics {
	out := s
	out.Deaths.ByCause = maps.Clone(s.Deaths.ByCause)
	out.Deaths.Recent = slices.Clone(s.Deaths.Recent)
	out.ExtinctionEvents = slices.Clone(s.ExtinctionEvents)
	return out
}

// UpdateStatistics recounts every aggregate by scanning all organisms.
func (w *WorldGrid) UpdateStatistics() {
	var s Statistics
	s.Tick = w.tick

	var densitySum float64
	gq := w.grassFilter.Query()
	for gq.Next() {
		_, vitals, grass := gq.Get()
		s.Counts[components.KindGrass]++
		s.TotalEnergy[components.KindGrass] += vitals.Energy
		densitySum += grass.Density
	}

	flocks := make(map[uint32]struct{})
	sq := w.sheepFilter.Query()
	for sq.Next() {
		_, vitals, animal, sheep := sq.Get()
		s.Counts[components.KindSheep]++
		s.TotalEnergy[components.KindSheep] += vitals.Energy
		if animal.Repro.IsPregnant {
			s.Pregnant[components.KindSheep]++
		}
		if sheep.FlockID != 0 {
			flocks[sheep.FlockID] = struct{}{}
		}
	}

	packs := make(map[uint32]struct{})
	wq := w.wolfFilter.Query()
	for wq.Next() {
		_, vitals, animal, wolf := wq.Get()
		s.Counts[components.KindWolf]++
		s.TotalEnergy[components.KindWolf] += vitals.Energy
		if animal.Repro.IsPregnant {
			s.Pregnant[components.KindWolf]++
		}
		if wolf.PackID != 0 {
			packs[wolf.PackID] = struct{}{}
		}
	}

	for _, k := range components.Kinds {
		if s.Counts[k] > 0 {
			s.AverageEnergy[k] = s.TotalEnergy[k] / float64(s.Counts[k])
		}
	}
	if n := s.Counts[components.KindGrass]; n > 0 {
		s.AverageGrassDensity = densitySum / float64(n)
	}
	s.ActiveFlocks = len(flocks)
	s.ActivePacks = len(packs)
	s.Births = w.births
	s.PlacementFailures = w.placementFailures
	s.Deaths = w.deaths.Stats()

	if w.statsReady {
		for _, k := range components.Kinds {
			if w.stats.Counts[k] > 0 && s.Counts[k] == 0 {
				w.extinctions = append(w.extinctions, ExtinctionEvent{Tick: w.tick, Kind: k})
			}
		}
	}
	s.ExtinctionEvents = slices.Clone(w.extinctions)

	w.stats = s
	w.statsReady = true
}

// Statistics returns a copy of the last recount.
func (w *WorldGrid) Statistics() Statistics {
	return w.stats.Clone()
}

// CheckInvariants verifies that every organism is in bounds and referenced by
// exactly the cell it sits in, and that pregnancies are well formed.
func (w *WorldGrid) CheckInvariants() error {
	var errs []error

	q := w.allFilter.Query()
	for q.Next() {
		e := q.Entity()
		org, pos, vitals := q.Get()
		if !vitals.Alive {
			errs = append(errs, fmt.Errorf("%s %d is dead but still in the world", org.Kind, org.ID))
		}
		if !w.InBounds(pos.X, pos.Y) {
			errs = append(errs, fmt.Errorf("%s %d out of bounds at (%d,%d)", org.Kind, org.ID, pos.X, pos.Y))
			continue
		}
		if got := w.cell(pos.X, pos.Y).at(org.Kind); got != e {
			errs = append(errs, fmt.Errorf("%s %d not referenced by its cell (%d,%d)", org.Kind, org.ID, pos.X, pos.Y))
		}
	}

	for i := range w.cells {
		c := &w.cells[i]
		for _, k := range components.Kinds {
			e := c.at(k)
			if e == noEntity {
				continue
			}
			if !w.world.Alive(e) {
				errs = append(errs, fmt.Errorf("cell (%d,%d) holds a removed %s", c.X, c.Y, k))
				continue
			}
			if pos := w.posMap.Get(e); pos.X != c.X || pos.Y != c.Y {
				errs = append(errs, fmt.Errorf("cell (%d,%d) holds %s positioned at (%d,%d)", c.X, c.Y, k, pos.X, pos.Y))
			}
		}
	}

	for _, k := range []components.Kind{components.KindSheep, components.KindWolf} {
		for _, e := range w.GetOrganismsByType(k) {
			r := w.animalMap.Get(e).Repro
			if r.IsPregnant && (r.GestationRemaining < 0 || r.ExpectedLitterSize < 1) {
				errs = append(errs, fmt.Errorf("%s %d has malformed pregnancy %+v", k, w.orgMap.Get(e).ID, r))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvariant, errors.Join(errs...))
}
