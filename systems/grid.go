// Package systems contains the world store and the per-tick processors.
package systems

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// noEntity marks an empty species slot.
var noEntity ecs.Entity

// Cell is one grid square. Each species slot holds at most one live organism.
type Cell struct {
	X, Y        int
	Temperature float64
	Season      components.Season
	Grass       ecs.Entity
	Sheep       ecs.Entity
	Wolf        ecs.Entity
}

func (c *Cell) slot(kind components.Kind) *ecs.Entity {
	switch kind {
	case components.KindGrass:
		return &c.Grass
	case components.KindSheep:
		return &c.Sheep
	case components.KindWolf:
		return &c.Wolf
	}
	return nil
}

// at returns the occupant of a species slot. Unknown kinds read as empty.
func (c *Cell) at(kind components.Kind) ecs.Entity {
	if s := c.slot(kind); s != nil {
		return *s
	}
	return noEntity
}

// Occupant returns the organism of the given species in this cell.
func (c Cell) Occupant(kind components.Kind) (ecs.Entity, bool) {
	e := c.at(kind)
	return e, e != noEntity
}

// Empty reports whether no species slot is filled.
func (c Cell) Empty() bool {
	return c.Grass == noEntity && c.Sheep == noEntity && c.Wolf == noEntity
}

// EventSink receives domain events as they happen.
// telemetry.Collector implements it.
type EventSink interface {
	RecordBirth(kind components.Kind, id, parentID uint64)
	RecordDeath(rec components.DeathRecord)
	RecordKill(wolfID uint64)
	RecordGraze(sheepID uint64, amount float64)
	RecordMating(kind components.Kind)
	RecordMiscarriage(rec components.DeathRecord)
}

type nopSink struct{}

func (nopSink) RecordBirth(components.Kind, uint64, uint64) {}
func (nopSink) RecordDeath(components.DeathRecord)          {}
func (nopSink) RecordKill(uint64)                           {}
func (nopSink) RecordGraze(uint64, float64)                 {}
func (nopSink) RecordMating(components.Kind)                {}
func (nopSink) RecordMiscarriage(components.DeathRecord)    {}

// Seed describes an organism to place at world seeding.
// Zero traits are replaced by the species defaults.
type Seed struct {
	Kind     components.Kind
	X, Y     int
	Energy   float64
	Age      int
	Density  float64 // grass only
	Traits   components.Traits
	FlockID  uint32
	PackID   uint32
	Role     components.PackRole
	ParentID uint64 // offspring only
}

// WorldGrid owns the cell array, the ECS world holding every organism,
// the clock and the death ledger.
type WorldGrid struct {
	cfg           *config.Config
	world         *ecs.World
	width, height int
	cells         []Cell

	tick        int
	season      components.Season
	temperature float64

	grassMapper *ecs.Map4[components.Organism, components.Position, components.Vitals, components.Grass]
	sheepMapper *ecs.Map5[components.Organism, components.Position, components.Vitals, components.Animal, components.Sheep]
	wolfMapper  *ecs.Map5[components.Organism, components.Position, components.Vitals, components.Animal, components.Wolf]

	orgMap    *ecs.Map1[components.Organism]
	posMap    *ecs.Map1[components.Position]
	vitalsMap *ecs.Map1[components.Vitals]
	grassMap  *ecs.Map1[components.Grass]
	animalMap *ecs.Map1[components.Animal]
	sheepMap  *ecs.Map1[components.Sheep]
	wolfMap   *ecs.Map1[components.Wolf]

	grassFilter *ecs.Filter3[components.Organism, components.Vitals, components.Grass]
	sheepFilter *ecs.Filter4[components.Organism, components.Vitals, components.Animal, components.Sheep]
	wolfFilter  *ecs.Filter4[components.Organism, components.Vitals, components.Animal, components.Wolf]
	allFilter   *ecs.Filter3[components.Organism, components.Position, components.Vitals]

	byID       map[uint64]ecs.Entity
	nextID     uint64
	packs      map[uint32]*components.Pack
	nextPackID uint32
	nextFlock  uint32

	deaths            *DeathLedger
	births            [components.NumKinds]int
	placementFailures int
	stats             Statistics
	statsReady        bool
	extinctions       []ExtinctionEvent

	events EventSink
}

// NewWorldGrid builds an empty world. It fails only on malformed configuration.
func NewWorldGrid(cfg *config.Config) (*WorldGrid, error) {
	if cfg == nil {
		return nil, errors.New("world grid: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world grid: %w", err)
	}

	world := ecs.NewWorld()
	w := &WorldGrid{
		cfg:    cfg,
		world:  world,
		width:  cfg.World.Width,
		height: cfg.World.Height,

		grassMapper: ecs.NewMap4[components.Organism, components.Position, components.Vitals, components.Grass](world),
		sheepMapper: ecs.NewMap5[components.Organism, components.Position, components.Vitals, components.Animal, components.Sheep](world),
		wolfMapper:  ecs.NewMap5[components.Organism, components.Position, components.Vitals, components.Animal, components.Wolf](world),

		orgMap:    ecs.NewMap1[components.Organism](world),
		posMap:    ecs.NewMap1[components.Position](world),
		vitalsMap: ecs.NewMap1[components.Vitals](world),
		grassMap:  ecs.NewMap1[components.Grass](world),
		animalMap: ecs.NewMap1[components.Animal](world),
		sheepMap:  ecs.NewMap1[components.Sheep](world),
		wolfMap:   ecs.NewMap1[components.Wolf](world),

		grassFilter: ecs.NewFilter3[components.Organism, components.Vitals, components.Grass](world),
		sheepFilter: ecs.NewFilter4[components.Organism, components.Vitals, components.Animal, components.Sheep](world),
		wolfFilter:  ecs.NewFilter4[components.Organism, components.Vitals, components.Animal, components.Wolf](world),
		allFilter:   ecs.NewFilter3[components.Organism, components.Position, components.Vitals](world),

		byID:   make(map[uint64]ecs.Entity),
		nextID: 1,
		packs:  make(map[uint32]*components.Pack),
		deaths: NewDeathLedger(cfg.World.DeathLogCapacity),
		events: nopSink{},
	}

	w.cells = make([]Cell, w.width*w.height)
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			w.cells[y*w.width+x] = Cell{X: x, Y: y}
		}
	}
	w.updateClimate()
	return w, nil
}

// SetEventSink routes domain events to s. A nil sink discards them.
func (w *WorldGrid) SetEventSink(s EventSink) {
	if s == nil {
		s = nopSink{}
	}
	w.events = s
}

// Config returns the configuration the world was built with.
func (w *WorldGrid) Config() *config.Config { return w.cfg }

// Width returns the grid width in cells.
func (w *WorldGrid) Width() int { return w.width }

// Height returns the grid height in cells.
func (w *WorldGrid) Height() int { return w.height }

// Tick returns the number of completed ticks.
func (w *WorldGrid) Tick() int { return w.tick }

// Season returns the current season.
func (w *WorldGrid) Season() components.Season { return w.season }

// Temperature returns the current world temperature.
func (w *WorldGrid) Temperature() float64 { return w.temperature }

// Deaths returns the death ledger.
func (w *WorldGrid) Deaths() *DeathLedger { return w.deaths }

// InBounds reports whether (x, y) lies on the grid.
func (w *WorldGrid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.width && y < w.height
}

// GetCell returns a copy of the cell at (x, y), or false when out of range.
func (w *WorldGrid) GetCell(x, y int) (Cell, bool) {
	if !w.InBounds(x, y) {
		return Cell{}, false
	}
	return w.cells[y*w.width+x], true
}

func (w *WorldGrid) cell(x, y int) *Cell {
	return &w.cells[y*w.width+x]
}

// SetCellContent puts e into the species slot of (x, y), leaving other
// species in the cell untouched.
func (w *WorldGrid) SetCellContent(x, y int, kind components.Kind, e ecs.Entity) bool {
	if !w.InBounds(x, y) {
		return false
	}
	slot := w.cell(x, y).slot(kind)
	if slot == nil {
		return false
	}
	*slot = e
	return true
}

// ClearCellContent empties the species slot of (x, y).
func (w *WorldGrid) ClearCellContent(x, y int, kind components.Kind) bool {
	return w.SetCellContent(x, y, kind, noEntity)
}

// Occupied reports whether the species slot of (x, y) holds an organism.
// Out-of-bounds cells count as occupied.
func (w *WorldGrid) Occupied(x, y int, kind components.Kind) bool {
	if !w.InBounds(x, y) {
		return true
	}
	return w.cell(x, y).at(kind) != noEntity
}

// GetOrganismsByType returns every live organism of kind in raster order
// (rows top to bottom, columns left to right).
func (w *WorldGrid) GetOrganismsByType(kind components.Kind) []ecs.Entity {
	var out []ecs.Entity
	for i := range w.cells {
		if e := w.cells[i].at(kind); e != noEntity {
			out = append(out, e)
		}
	}
	return out
}

// IncrementTick advances the clock and restamps every cell's climate.
func (w *WorldGrid) IncrementTick() {
	w.tick++
	w.updateClimate()
	// The last recount describes the world as the finished tick left it.
	w.stats.Tick = w.tick
}

func (w *WorldGrid) updateClimate() {
	w.season = components.Season((w.tick / w.cfg.World.SeasonLength) % config.NumSeasons)
	w.temperature = w.cfg.World.BaseTemperature + w.cfg.World.SeasonTemperatureOffsets[w.season]
	for i := range w.cells {
		w.cells[i].Season = w.season
		w.cells[i].Temperature = w.temperature
	}
}

// PlaceOrganism creates an organism from a seed. It returns false without
// side effects if the kind is unknown, the position is off the grid or the
// cell already holds that species.
func (w *WorldGrid) PlaceOrganism(s Seed) (ecs.Entity, bool) {
	if !s.Kind.Valid() || w.Occupied(s.X, s.Y, s.Kind) {
		return noEntity, false
	}

	org := components.Organism{ID: w.nextID, Kind: s.Kind}
	pos := components.Position{X: s.X, Y: s.Y}
	vitals := components.Vitals{Energy: s.Energy, Age: s.Age, Alive: true}

	var e ecs.Entity
	switch s.Kind {
	case components.KindGrass:
		density := clamp01(s.Density)
		vitals.Energy = density
		grass := components.Grass{Density: density, LastGrazed: -1}
		e = w.grassMapper.NewEntity(&org, &pos, &vitals, &grass)
	case components.KindSheep:
		animal := w.newAnimal(s.Traits, &w.cfg.Sheep.AnimalConfig, w.cfg.Sheep.GrazingEfficiency)
		sheep := components.Sheep{FlockID: s.FlockID}
		e = w.sheepMapper.NewEntity(&org, &pos, &vitals, &animal, &sheep)
	case components.KindWolf:
		animal := w.newAnimal(s.Traits, &w.cfg.Wolf.AnimalConfig, w.cfg.Wolf.HuntingSkill)
		wolf := components.Wolf{PackID: s.PackID, Role: s.Role}
		if wolf.PackID != 0 && wolf.Role == components.RoleNone {
			wolf.Role = components.RoleOmega
		}
		e = w.wolfMapper.NewEntity(&org, &pos, &vitals, &animal, &wolf)
	default:
		return noEntity, false
	}

	w.nextID++
	w.byID[org.ID] = e
	w.SetCellContent(s.X, s.Y, s.Kind, e)
	return e, true
}

func (w *WorldGrid) newAnimal(t components.Traits, ac *config.AnimalConfig, efficiency float64) components.Animal {
	if t.Efficiency == 0 {
		t.Efficiency = efficiency
	}
	if t.EnergyEfficiency == 0 {
		t.EnergyEfficiency = 1
	}
	if t.MaxLifespan == 0 {
		t.MaxLifespan = ac.Lifespan
	}
	return components.Animal{
		Repro:  components.ReproductionState{LastMatingTick: -1},
		Traits: t,
	}
}

// SpawnOffspring places a newborn and counts it as a birth.
func (w *WorldGrid) SpawnOffspring(s Seed) (ecs.Entity, bool) {
	e, ok := w.PlaceOrganism(s)
	if !ok {
		return noEntity, false
	}
	w.births[s.Kind]++
	w.events.RecordBirth(s.Kind, w.orgMap.Get(e).ID, s.ParentID)
	return e, true
}

// RecordPlacementFailure counts an offspring or seed dropped for lack of space.
func (w *WorldGrid) RecordPlacementFailure() {
	w.placementFailures++
}

// MoveTo relocates an animal. It fails if the target is off the grid or
// holds the same species.
func (w *WorldGrid) MoveTo(e ecs.Entity, to components.Position) bool {
	org := w.orgMap.Get(e)
	pos := w.posMap.Get(e)
	if *pos == to {
		return true
	}
	if w.Occupied(to.X, to.Y, org.Kind) {
		return false
	}
	w.ClearCellContent(pos.X, pos.Y, org.Kind)
	w.SetCellContent(to.X, to.Y, org.Kind, e)
	if org.Kind.IsAnimal() {
		w.animalMap.Get(e).LastDirection = components.DirectionOf(to.X-pos.X, to.Y-pos.Y)
	}
	*pos = to
	return true
}

// Kill records the death of e and removes it from its cell and the world.
func (w *WorldGrid) Kill(e ecs.Entity, cause components.DeathCause, killerID uint64) {
	if !w.Alive(e) {
		return
	}
	w.RecordDeath(e, cause, killerID)
	org := w.orgMap.Get(e)
	pos := w.posMap.Get(e)
	w.ClearCellContent(pos.X, pos.Y, org.Kind)
	delete(w.byID, org.ID)
	w.world.RemoveEntity(e)
}

// RecordDeath appends a ledger entry for e with the surrounding environment.
// killerID is the grazing sheep or hunting wolf, or 0.
func (w *WorldGrid) RecordDeath(e ecs.Entity, cause components.DeathCause, killerID uint64) components.DeathRecord {
	rec := w.snapshot(e, cause)
	rec.KillerID = killerID
	w.vitalsMap.Get(e).Alive = false
	w.deaths.Append(rec)
	w.events.RecordDeath(rec)
	return rec
}

// RecordMiscarriage logs a failed pregnancy against e. The parent is untouched.
func (w *WorldGrid) RecordMiscarriage(e ecs.Entity) components.DeathRecord {
	rec := w.snapshot(e, components.CauseStarvation)
	rec.Miscarriage = true
	w.deaths.Append(rec)
	w.events.RecordMiscarriage(rec)
	return rec
}

func (w *WorldGrid) snapshot(e ecs.Entity, cause components.DeathCause) components.DeathRecord {
	org := w.orgMap.Get(e)
	pos := w.posMap.Get(e)
	vitals := w.vitalsMap.Get(e)
	rec := components.DeathRecord{
		OrganismID: org.ID,
		Kind:       org.Kind,
		Cause:      cause,
		Tick:       w.tick,
		Energy:     vitals.Energy,
		Age:        vitals.Age,
		Position:   *pos,
		Context:    w.environment(*pos, org.Kind),
	}
	if org.Kind.IsAnimal() {
		repro := w.animalMap.Get(e).Repro
		rec.Repro = &repro
	}
	return rec
}

func (w *WorldGrid) environment(p components.Position, kind components.Kind) components.EnvironmentContext {
	ctx := components.EnvironmentContext{Temperature: w.temperature, Season: w.season}
	prey, hasPrey := kind.Prey()
	pred, hasPred := kind.Predator()

	r := w.cfg.World.DeathContextRadius
	var density float64
	var cells int
	for y := p.Y - r; y <= p.Y+r; y++ {
		for x := p.X - r; x <= p.X+r; x++ {
			if !w.InBounds(x, y) {
				continue
			}
			c := w.cell(x, y)
			cells++
			if c.Grass != noEntity {
				density += w.grassMap.Get(c.Grass).Density
			}
			if x == p.X && y == p.Y {
				continue
			}
			if hasPrey && c.at(prey) != noEntity {
				ctx.NearbyPrey++
			}
			if hasPred && c.at(pred) != noEntity {
				ctx.NearbyPredators++
			}
		}
	}
	if cells > 0 {
		ctx.ResourceDensity = density / float64(cells)
	}
	return ctx
}

// Alive reports whether e is a live organism in the world.
func (w *WorldGrid) Alive(e ecs.Entity) bool {
	return e != noEntity && w.world.Alive(e)
}

// Lookup resolves an organism id to its entity.
func (w *WorldGrid) Lookup(id uint64) (ecs.Entity, bool) {
	e, ok := w.byID[id]
	return e, ok
}

// Organism returns the identity component of e.
func (w *WorldGrid) Organism(e ecs.Entity) *components.Organism { return w.orgMap.Get(e) }

// Position returns the position component of e.
func (w *WorldGrid) Position(e ecs.Entity) *components.Position { return w.posMap.Get(e) }

// Vitals returns the vitals component of e.
func (w *WorldGrid) Vitals(e ecs.Entity) *components.Vitals { return w.vitalsMap.Get(e) }

// Grass returns the grass payload of e. e must be grass.
func (w *WorldGrid) Grass(e ecs.Entity) *components.Grass { return w.grassMap.Get(e) }

// Animal returns the animal state of e. e must be a sheep or wolf.
func (w *WorldGrid) Animal(e ecs.Entity) *components.Animal { return w.animalMap.Get(e) }

// Sheep returns the sheep payload of e. e must be a sheep.
func (w *WorldGrid) Sheep(e ecs.Entity) *components.Sheep { return w.sheepMap.Get(e) }

// Wolf returns the wolf payload of e. e must be a wolf.
func (w *WorldGrid) Wolf(e ecs.Entity) *components.Wolf { return w.wolfMap.Get(e) }

// NewPack registers a pack with its territory centred at c.
func (w *WorldGrid) NewPack(c components.Position) uint32 {
	w.nextPackID++
	w.packs[w.nextPackID] = &components.Pack{
		ID: w.nextPackID,
		Territory: components.Territory{
			CenterX: c.X,
			CenterY: c.Y,
			Radius:  w.cfg.Wolf.Pack.TerritoryRadius,
		},
	}
	return w.nextPackID
}

// NewFlock returns a fresh flock id.
func (w *WorldGrid) NewFlock() uint32 {
	w.nextFlock++
	return w.nextFlock
}

// Pack returns the pack with the given id.
func (w *WorldGrid) Pack(id uint32) (*components.Pack, bool) {
	p, ok := w.packs[id]
	return p, ok
}

// Packs returns a copy of every pack ordered by id.
func (w *WorldGrid) Packs() []components.Pack {
	out := make([]components.Pack, 0, len(w.packs))
	for _, id := range w.packIDs() {
		out = append(out, *w.packs[id])
	}
	return out
}

func (w *WorldGrid) packIDs() []uint32 {
	ids := make([]uint32, 0, len(w.packs))
	for id := range w.packs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
