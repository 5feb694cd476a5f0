package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// adult places a sheep old and fed enough to breed.
func adult(t *testing.T, g *WorldGrid, kind components.Kind, x, y int, energy float64) ecs.Entity {
	t.Helper()
	return place(t, g, Seed{Kind: kind, X: x, Y: y, Energy: energy, Age: g.AnimalConfig(kind).Reproduction.MinAge + 10})
}

// ---------- mating ----------

func TestMatingProbability_Quadratic(t *testing.T) {
	rc := &config.ReproductionConfig{BaseRate: 0.8}
	tests := []struct {
		avg, max, want float64
	}{
		{100, 100, 0.8},
		{50, 100, 0.2},
		{25, 100, 0.05},
		{0, 100, 0},
	}
	for _, tt := range tests {
		if got := MatingProbability(rc, tt.avg, tt.max); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("MatingProbability(%v/%v) = %f, want %f", tt.avg, tt.max, got, tt.want)
		}
	}
}

func TestEligible(t *testing.T) {
	g := newTestGrid(t, nil)
	rc := g.Config().Sheep.Reproduction

	tests := []struct {
		name  string
		setup func(v *components.Vitals, a *components.Animal)
		want  bool
	}{
		{"adult", func(v *components.Vitals, a *components.Animal) {}, true},
		{"too young", func(v *components.Vitals, a *components.Animal) { v.Age = rc.MinAge - 1 }, false},
		{"too old", func(v *components.Vitals, a *components.Animal) { v.Age = rc.MaxAge + 1 }, false},
		{"low energy", func(v *components.Vitals, a *components.Animal) { v.Energy = rc.MinEnergy - 1 }, false},
		{"pregnant", func(v *components.Vitals, a *components.Animal) {
			a.Repro = components.ReproductionState{IsPregnant: true, GestationRemaining: 3, ExpectedLitterSize: 1}
		}, false},
		{"cooling down", func(v *components.Vitals, a *components.Animal) { a.ReproCooldown = 2 }, false},
		{"mated recently", func(v *components.Vitals, a *components.Animal) { a.Repro.LastMatingTick = 0 }, false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := adult(t, g, components.KindSheep, i, 0, 90)
			tt.setup(g.Vitals(e), g.Animal(e))
			if got := g.Eligible(e); got != tt.want {
				t.Errorf("Eligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReproduction_EligiblePairYieldsOffspring(t *testing.T) {
	births := 0
	for seed := int64(1); seed <= 10; seed++ {
		g := newTestGrid(t, nil)
		a := adult(t, g, components.KindSheep, 10, 10, 90)
		b := adult(t, g, components.KindSheep, 11, 10, 90)
		parents := map[uint64]bool{g.Organism(a).ID: true, g.Organism(b).ID: true}

		rng := rand.New(rand.NewSource(seed))
		repro := NewReproductionProcessor(g)
		gestation := g.Config().Sheep.Reproduction.GestationPeriod

		repro.Process(rng)
		g.IncrementTick()
		matedFirstTick := g.Animal(a).Repro.IsPregnant || g.Animal(b).Repro.IsPregnant

		// A litter conceived on the first tick is due exactly now.
		for range gestation {
			repro.Process(rng)
			g.IncrementTick()
		}

		offspring := false
		for _, e := range g.GetOrganismsByType(components.KindSheep) {
			if !parents[g.Organism(e).ID] {
				offspring = true
				break
			}
		}
		if offspring != matedFirstTick {
			t.Errorf("seed %d: mated on first tick = %v but offspring after %d ticks = %v",
				seed, matedFirstTick, gestation+1, offspring)
		}
		if offspring {
			births++
		}
	}
	if births == 0 {
		t.Fatal("no seeded trial produced offspring within one gestation")
	}
}

func TestReproduction_PregnancyCycle(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) {
		c.Sheep.Reproduction.BaseRate = 100 // mating always succeeds
		c.Sheep.Reproduction.LitterMin = 2
		c.Sheep.Reproduction.LitterMax = 2
	})
	rc := g.Config().Sheep.Reproduction
	a := adult(t, g, components.KindSheep, 10, 10, 90)
	b := adult(t, g, components.KindSheep, 11, 10, 90)
	rng := rand.New(rand.NewSource(4))
	repro := NewReproductionProcessor(g)

	repro.Process(rng)
	g.IncrementTick()

	seeker := g.Animal(a)
	if !seeker.Repro.IsPregnant || seeker.Repro.ExpectedLitterSize != 2 || seeker.Repro.GestationRemaining != rc.GestationPeriod {
		t.Fatalf("seeker not pregnant as expected: %+v", seeker.Repro)
	}
	if seeker.Repro.MateID != g.Organism(b).ID {
		t.Errorf("MateID = %d, want %d", seeker.Repro.MateID, g.Organism(b).ID)
	}
	if g.Animal(b).Repro.IsPregnant || g.Animal(b).Repro.LastMatingTick != 0 {
		t.Errorf("partner state %+v", g.Animal(b).Repro)
	}

	for range rc.GestationPeriod {
		repro.Process(rng)
		g.IncrementTick()
	}

	g.UpdateStatistics()
	stats := g.Statistics()
	if stats.Counts[components.KindSheep] != 4 {
		t.Fatalf("sheep count = %d, want 4", stats.Counts[components.KindSheep])
	}
	if stats.Births[components.KindSheep] != 2 {
		t.Errorf("births = %d, want 2", stats.Births[components.KindSheep])
	}
	parent := g.Animal(a)
	if parent.Repro.IsPregnant || parent.ReproCooldown != rc.CooldownPeriod {
		t.Errorf("parent after birth: %+v cooldown %d", parent.Repro, parent.ReproCooldown)
	}
	wantEnergy := 90 - rc.EnergyCost
	if got := g.Vitals(a).Energy; math.Abs(got-wantEnergy) > 1e-9 {
		t.Errorf("parent energy = %f, want %f", got, wantEnergy)
	}
}

func TestReproduction_Miscarriage(t *testing.T) {
	g := newTestGrid(t, nil)
	rc := g.Config().Sheep.Reproduction
	e := adult(t, g, components.KindSheep, 5, 5, rc.MiscarriageFloor+1)
	g.Animal(e).Repro = components.ReproductionState{
		IsPregnant:         true,
		GestationRemaining: 5,
		ExpectedLitterSize: 2,
		EnergyCostPerTick:  2,
		LastMatingTick:     -1,
	}

	NewReproductionProcessor(g).Process(rand.New(rand.NewSource(1)))

	if !g.Alive(e) {
		t.Fatal("miscarriage killed the parent")
	}
	a := g.Animal(e)
	if a.Repro.IsPregnant || a.ReproCooldown != rc.CooldownPeriod {
		t.Errorf("parent state after miscarriage: %+v cooldown %d", a.Repro, a.ReproCooldown)
	}
	stats := g.Deaths().Stats()
	if stats.Miscarriages != 1 || stats.TotalDeaths != 0 {
		t.Errorf("Miscarriages=%d TotalDeaths=%d", stats.Miscarriages, stats.TotalDeaths)
	}
	if len(stats.Recent) != 1 || stats.Recent[0].Repro == nil || !stats.Recent[0].Repro.IsPregnant {
		t.Errorf("miscarriage record should snapshot the pregnancy: %+v", stats.Recent)
	}
}

func TestReproduction_BirthDropsWithoutRoom(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Sheep.Reproduction.BirthRadius = 1 })
	parent := adult(t, g, components.KindSheep, 5, 5, 90)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx != 0 || dy != 0 {
				place(t, g, Seed{Kind: components.KindSheep, X: 5 + dx, Y: 5 + dy, Energy: 10})
			}
		}
	}
	g.Animal(parent).Repro = components.ReproductionState{
		IsPregnant:         true,
		GestationRemaining: 1,
		ExpectedLitterSize: 2,
		LastMatingTick:     -1,
	}

	NewReproductionProcessor(g).Process(rand.New(rand.NewSource(1)))
	g.UpdateStatistics()

	s := g.Statistics()
	if s.Counts[components.KindSheep] != 9 {
		t.Errorf("sheep count = %d, want 9", s.Counts[components.KindSheep])
	}
	if s.PlacementFailures != 2 || s.Births[components.KindSheep] != 0 {
		t.Errorf("PlacementFailures=%d Births=%d, want 2 and 0", s.PlacementFailures, s.Births[components.KindSheep])
	}
	if g.Animal(parent).Repro.IsPregnant {
		t.Error("parent should return to idle even when the litter is lost")
	}
}

func TestReproduction_WolfPackRules(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Wolf.Pack.AlphaBreedingOnly = true })
	pack := g.NewPack(components.Position{X: 10, Y: 10})
	other := g.NewPack(components.Position{X: 30, Y: 30})
	alpha1 := place(t, g, Seed{Kind: components.KindWolf, X: 10, Y: 10, Energy: 100, PackID: pack, Role: components.RoleAlpha})
	alpha2 := place(t, g, Seed{Kind: components.KindWolf, X: 11, Y: 10, Energy: 100, PackID: pack, Role: components.RoleAlpha})
	omega := place(t, g, Seed{Kind: components.KindWolf, X: 12, Y: 10, Energy: 100, PackID: pack, Role: components.RoleOmega})
	foreign := place(t, g, Seed{Kind: components.KindWolf, X: 10, Y: 11, Energy: 100, PackID: other, Role: components.RoleAlpha})

	p := NewReproductionProcessor(g)
	tests := []struct {
		name string
		a, b ecs.Entity
		want bool
	}{
		{"alpha pair", alpha1, alpha2, true},
		{"alpha and omega", alpha1, omega, false},
		{"different packs", alpha1, foreign, false},
	}
	for _, tt := range tests {
		if got := p.compatible(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: compatible = %v, want %v", tt.name, got, tt.want)
		}
	}

	g.cfg.Wolf.Pack.AlphaBreedingOnly = false
	if !p.compatible(alpha1, omega) {
		t.Error("any in-territory pair may mate without alpha-only breeding")
	}
}

// ---------- inheritance ----------

func TestInherit_ClampsToRange(t *testing.T) {
	ic := &config.InheritanceConfig{
		TraitVariation:    0.5,
		LifespanVariation: 100,
		MinTrait:          0.2,
		MaxTrait:          2.0,
		MinLifespan:       100,
		MaxLifespan:       500,
	}
	rng := rand.New(rand.NewSource(8))
	parents := []components.Traits{
		{Efficiency: 2.0, EnergyEfficiency: 2.0, MaxLifespan: 500},
		{Efficiency: 0.2, EnergyEfficiency: 0.2, MaxLifespan: 100},
		{Efficiency: 1.0, EnergyEfficiency: 1.0, MaxLifespan: 300},
	}
	for _, parent := range parents {
		for range 200 {
			c := Inherit(rng, parent, ic)
			if c.Efficiency < ic.MinTrait || c.Efficiency > ic.MaxTrait {
				t.Fatalf("efficiency %f out of range", c.Efficiency)
			}
			if c.EnergyEfficiency < ic.MinTrait || c.EnergyEfficiency > ic.MaxTrait {
				t.Fatalf("energy efficiency %f out of range", c.EnergyEfficiency)
			}
			if c.MaxLifespan < ic.MinLifespan || c.MaxLifespan > ic.MaxLifespan {
				t.Fatalf("lifespan %d out of range", c.MaxLifespan)
			}
			if math.Abs(c.Efficiency-parent.Efficiency) > ic.TraitVariation {
				t.Fatalf("efficiency %f strayed more than %f from %f", c.Efficiency, ic.TraitVariation, parent.Efficiency)
			}
		}
	}
}

// ---------- packs ----------

func TestUpdatePacks_PromotesAndDissolves(t *testing.T) {
	g := newTestGrid(t, nil)
	pack := g.NewPack(components.Position{X: 0, Y: 0})
	empty := g.NewPack(components.Position{X: 40, Y: 40})

	ages := []int{10, 30, 20}
	wolves := make([]ecs.Entity, len(ages))
	for i, age := range ages {
		wolves[i] = place(t, g, Seed{Kind: components.KindWolf, X: 10 + 2*i, Y: 12, Energy: 80, Age: age, PackID: pack})
	}

	g.UpdatePacks()

	if _, ok := g.Pack(empty); ok {
		t.Error("empty pack should be dissolved")
	}
	p, ok := g.Pack(pack)
	if !ok {
		t.Fatal("pack dissolved")
	}
	if p.Members != 3 || p.Alphas != 2 {
		t.Errorf("members=%d alphas=%d, want 3 and 2", p.Members, p.Alphas)
	}
	if p.Territory.CenterX != 12 || p.Territory.CenterY != 12 {
		t.Errorf("territory centre (%d,%d), want (12,12)", p.Territory.CenterX, p.Territory.CenterY)
	}
	wantRoles := []components.PackRole{components.RoleOmega, components.RoleAlpha, components.RoleAlpha}
	for i, e := range wolves {
		if r := g.Wolf(e).Role; r != wantRoles[i] {
			t.Errorf("wolf aged %d has role %v, want %v", ages[i], r, wantRoles[i])
		}
	}
}
