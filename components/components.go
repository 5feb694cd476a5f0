// Package components defines ECS components and the data model for the simulation.
package components

// Kind discriminates the three trophic levels. Every organism entity carries
// exactly one species payload component matching its Kind.
type Kind uint8

const (
	KindGrass Kind = iota // Producer
	KindSheep             // Herbivore
	KindWolf              // Predator
)

// NumKinds is the number of species tracked per cell.
const NumKinds = 3

// Kinds lists all species in trophic order.
var Kinds = [NumKinds]Kind{KindGrass, KindSheep, KindWolf}

// Prey returns the species this kind feeds on, and false for producers.
func (k Kind) Prey() (Kind, bool) {
	switch k {
	case KindSheep:
		return KindGrass, true
	case KindWolf:
		return KindSheep, true
	}
	return 0, false
}

// Predator returns the species that feeds on this kind, and false for apex predators.
func (k Kind) Predator() (Kind, bool) {
	switch k {
	case KindGrass:
		return KindSheep, true
	case KindSheep:
		return KindWolf, true
	}
	return 0, false
}

// Valid reports whether k names one of the three species.
func (k Kind) Valid() bool {
	return k < NumKinds
}

// IsAnimal reports whether the kind moves, hungers and reproduces sexually.
func (k Kind) IsAnimal() bool {
	return k == KindSheep || k == KindWolf
}

// Position is an integer grid coordinate.
type Position struct {
	X, Y int
}

// Vitals tracks the metabolic state shared by all organisms.
type Vitals struct {
	Energy float64 `inspect:"bar,max:max_energy"`
	Age    int     `inspect:"label"` // ticks alive
	Alive  bool    `inspect:"bool"`
}

// Organism bundles identity and the species tag.
type Organism struct {
	ID   uint64 `inspect:"label"`
	Kind Kind   `inspect:"label"`
}

// Season is one quarter of the climate cycle.
type Season uint8

const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)
