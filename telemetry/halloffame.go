package telemetry

import (
	"encoding/json"
	"sort"

	"github.com/pthm-cable/foodchain/components"
)

// Fitness weights for ranking finished lifetimes.
const (
	childrenWeight = 10.0
	survivalWeight = 0.05
	killsWeight    = 5.0
	grazingWeight  = 2.0
)

// HallEntry is a finished lifetime that ranked among the most successful of its species.
type HallEntry struct {
	ID        uint64                `json:"id"`
	ParentID  uint64                `json:"parent_id"`
	Fitness   float64               `json:"fitness"`
	Children  int                   `json:"children"`
	Kills     int                   `json:"kills"`
	Grazed    float64               `json:"grazed"`
	BirthTick int                   `json:"birth_tick"`
	Lifespan  int                   `json:"lifespan"`
	Cause     components.DeathCause `json:"cause"`
}

// HallOfFame keeps the fittest finished lifetimes per animal species.
type HallOfFame struct {
	halls   [components.NumKinds][]HallEntry
	maxSize int
}

// NewHallOfFame creates a new hall of fame with the given capacity per species.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{maxSize: maxSize}
}

// Fitness scores a finished lifetime.
func Fitness(stats *LifetimeStats) float64 {
	fitness := float64(stats.Children) * childrenWeight
	fitness += float64(stats.Lifespan()) * survivalWeight
	if stats.Kind == components.KindWolf {
		fitness += float64(stats.Kills) * killsWeight
	} else {
		fitness += stats.TotalGrazed * grazingWeight
	}
	return fitness
}

// Consider evaluates a finished lifetime for entry.
// Returns true if the organism was added to the hall.
func (hof *HallOfFame) Consider(stats *LifetimeStats) bool {
	if stats == nil || !stats.Kind.IsAnimal() {
		return false
	}
	// Only organisms that achieved something qualify.
	if stats.Children == 0 && stats.Kills == 0 && stats.TotalGrazed == 0 {
		return false
	}

	entry := HallEntry{
		ID:        stats.ID,
		ParentID:  stats.ParentID,
		Fitness:   Fitness(stats),
		Children:  stats.Children,
		Kills:     stats.Kills,
		Grazed:    stats.TotalGrazed,
		BirthTick: stats.BirthTick,
		Lifespan:  stats.Lifespan(),
		Cause:     stats.Cause,
	}

	hof.halls[stats.Kind] = hof.insertEntry(hof.halls[stats.Kind], entry)
	return hof.contains(stats.Kind, stats.ID)
}

func (hof *HallOfFame) contains(kind components.Kind, id uint64) bool {
	for _, e := range hof.halls[kind] {
		if e.ID == id {
			return true
		}
	}
	return false
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	// Insert at position
	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	// Trim if over capacity
	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall
}

// Entries returns a copy of the hall for the given species, fittest first.
func (hof *HallOfFame) Entries(kind components.Kind) []HallEntry {
	out := make([]HallEntry, len(hof.halls[kind]))
	copy(out, hof.halls[kind])
	return out
}

// TopFitness returns the highest fitness in the hall for a species.
// Returns 0 if the hall is empty.
func (hof *HallOfFame) TopFitness(kind components.Kind) float64 {
	hall := hof.halls[kind]
	if len(hall) == 0 {
		return 0
	}
	return hall[0].Fitness
}

// MarshalJSON serializes the hall of fame keyed by species name.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]HallEntry)
	for _, kind := range components.Kinds {
		if !kind.IsAnimal() {
			continue
		}
		export[kind.String()] = hof.Entries(kind)
	}
	return json.MarshalIndent(export, "", "  ")
}
