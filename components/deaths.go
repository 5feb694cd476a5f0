package components

// DeathCause tags why an organism was removed from the world.
type DeathCause string

const (
	CauseAge        DeathCause = "age"
	CauseStarvation DeathCause = "starvation" // energy exhausted
	CauseHunger     DeathCause = "hunger"     // too long without a meal
	CauseGrazing    DeathCause = "grazing"    // grass eaten down to zero
	CauseHunting    DeathCause = "hunting"    // sheep killed by a wolf
)

// Causes lists all death causes in the order the death policy checks them,
// followed by the consumption causes.
var Causes = []DeathCause{CauseAge, CauseStarvation, CauseHunger, CauseGrazing, CauseHunting}

// EnvironmentContext is the neighbourhood captured when a death is recorded.
type EnvironmentContext struct {
	NearbyPrey      int     // food organisms within the context radius
	NearbyPredators int     // organisms that eat the deceased within the radius
	ResourceDensity float64 // mean grass density over the in-bounds cells of the radius
	Temperature     float64
	Season          Season
}

// DeathRecord is one entry of the death ledger.
// Miscarriage entries are recorded against a pregnancy; the parent survives.
type DeathRecord struct {
	OrganismID  uint64
	Kind        Kind
	Cause       DeathCause
	Tick        int
	Energy      float64
	Age         int
	Position    Position
	Context     EnvironmentContext
	Repro       *ReproductionState // nil for grass
	KillerID    uint64             // grazing sheep or hunting wolf, 0 otherwise
	Miscarriage bool
}
