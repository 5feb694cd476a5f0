package telemetry

import "github.com/pthm-cable/foodchain/components"

// LifetimeStats tracks per-organism statistics over its lifetime.
type LifetimeStats struct {
	ID        uint64
	Kind      components.Kind
	ParentID  uint64
	BirthTick int
	DeathTick int
	Cause     components.DeathCause

	// Hunting (wolves)
	Kills int

	// Reproduction
	Children int

	// Feeding (sheep): cumulative grass density consumed
	TotalGrazed float64
}

// Lifespan returns the number of ticks the organism lived.
func (s *LifetimeStats) Lifespan() int {
	return s.DeathTick - s.BirthTick
}

// LifetimeTracker manages per-animal lifetime statistics. Grass is not tracked.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new animal.
func (lt *LifetimeTracker) Register(id uint64, kind components.Kind, parentID uint64, birthTick int) {
	if !kind.IsAnimal() {
		return
	}
	lt.stats[id] = &LifetimeStats{
		ID:        id,
		Kind:      kind,
		ParentID:  parentID,
		BirthTick: birthTick,
	}
	if parentID != 0 {
		lt.RecordChild(parentID)
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an organism's stats, stamps the death and returns them.
func (lt *LifetimeTracker) Remove(rec components.DeathRecord) *LifetimeStats {
	s := lt.stats[rec.OrganismID]
	if s == nil {
		return nil
	}
	delete(lt.stats, rec.OrganismID)
	s.DeathTick = rec.Tick
	s.Cause = rec.Cause
	return s
}

// RecordKill increments kill count.
func (lt *LifetimeTracker) RecordKill(id uint64) {
	if s := lt.stats[id]; s != nil {
		s.Kills++
	}
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint64) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordGraze adds consumed grass to the cumulative total.
func (lt *LifetimeTracker) RecordGraze(id uint64, amount float64) {
	if s := lt.stats[id]; s != nil {
		s.TotalGrazed += amount
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Reset drops all tracked organisms.
func (lt *LifetimeTracker) Reset() {
	clear(lt.stats)
}
