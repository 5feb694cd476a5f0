package components

// Growth stage thresholds on grass density.
const (
	DyingDensity  = 0.05
	SproutDensity = 0.3
)

// GrowthStage is the maturity of a grass patch, derived from its density.
type GrowthStage uint8

const (
	StageSeed GrowthStage = iota
	StageSprout
	StageMature
	StageDying
)

// Grass is the producer payload.
type Grass struct {
	Density    float64 `inspect:"bar"`   // 0..1
	LastGrazed int     `inspect:"label"` // tick of last grazing, -1 if never grazed
}

// Stage derives the growth stage. matureDensity is the spread threshold.
func (g *Grass) Stage(matureDensity float64) GrowthStage {
	switch {
	case g.Density < DyingDensity:
		return StageDying
	case g.Density < SproutDensity:
		return StageSeed
	case g.Density < matureDensity:
		return StageSprout
	}
	return StageMature
}

// ReproductionState is the pregnancy state machine embedded in every animal.
// A zero value is Idle.
type ReproductionState struct {
	IsPregnant         bool
	GestationRemaining int
	ExpectedLitterSize int
	EnergyCostPerTick  float64
	MateID             uint64
	LastMatingTick     int // -1 if never mated
}

// Idle resets the pregnancy fields, keeping the mating history.
func (r *ReproductionState) Idle() {
	r.IsPregnant = false
	r.GestationRemaining = 0
	r.ExpectedLitterSize = 0
	r.EnergyCostPerTick = 0
	r.MateID = 0
}

// Traits are heritable per-organism multipliers.
// Efficiency is grazing efficiency for sheep and hunting skill for wolves.
type Traits struct {
	Efficiency       float64 `inspect:"label,fmt:%.2f"`
	EnergyEfficiency float64 `inspect:"label,fmt:%.2f"` // divides metabolic cost
	MaxLifespan      int     `inspect:"label"`
}

// Animal holds the state shared by herbivores and predators.
type Animal struct {
	Hunger        int `inspect:"label"` // ticks since last meal
	ReproCooldown int `inspect:"label"` // ticks until mating is allowed again
	LastDirection Direction
	Repro         ReproductionState
	Traits        Traits
}

// Sheep is the herbivore payload.
type Sheep struct {
	FlockID uint32 // 0 = no flock
}

// PackRole is a wolf's rank within its pack.
type PackRole uint8

const (
	RoleNone PackRole = iota
	RoleAlpha
	RoleOmega
)

// Wolf is the predator payload.
type Wolf struct {
	PackID   uint32 // 0 = lone wolf; doubles as the territory reference
	Role     PackRole
	TargetID uint64 // sheep currently hunted, 0 = none
}

// Territory is a circular claim around a pack centre.
type Territory struct {
	CenterX, CenterY int
	Radius           int
}

// Pack groups wolves that share a territory.
type Pack struct {
	ID        uint32
	Territory Territory
	Members   int
	Alphas    int
}
