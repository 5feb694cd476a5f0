// Package inspector renders the component state of a single organism as text,
// driven by the inspect struct tags on the component types.
package inspector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/systems"
)

// ErrNotFound is returned when no living organism has the requested id.
var ErrNotFound = errors.New("organism not found")

// Section is one component of the inspected organism.
type Section struct {
	Name   string
	Fields []Field
}

// Report is a snapshot of one organism's components.
type Report struct {
	ID       uint64
	Kind     components.Kind
	Tick     int
	Sections []Section

	limits map[string]float64
}

// Inspect captures the components of the living organism with the given id.
func Inspect(g *systems.WorldGrid, id uint64) (Report, error) {
	e, ok := g.Lookup(id)
	if !ok {
		return Report{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	org := g.Organism(e)
	r := Report{
		ID:     org.ID,
		Kind:   org.Kind,
		Tick:   g.Tick(),
		limits: map[string]float64{"max_energy": 1},
	}

	r.add("Organism", org)
	r.add("Position", g.Position(e))
	r.add("Vitals", g.Vitals(e))

	switch org.Kind {
	case components.KindGrass:
		grass := g.Grass(e)
		s := r.add("Grass", grass)
		s.Fields = append(s.Fields, Field{
			Name:   "Stage",
			Value:  grass.Stage(g.Config().Grass.SpreadThreshold),
			Widget: WidgetLabel,
		})
	case components.KindSheep:
		r.limits["max_energy"] = g.AnimalConfig(org.Kind).MaxEnergy
		r.add("Animal", g.Animal(e))
		r.add("Sheep", g.Sheep(e))
	case components.KindWolf:
		r.limits["max_energy"] = g.AnimalConfig(org.Kind).MaxEnergy
		r.add("Animal", g.Animal(e))
		wolf := g.Wolf(e)
		r.add("Wolf", wolf)
		if pack, ok := g.Pack(wolf.PackID); ok {
			r.add("Pack", pack)
		}
	}
	return r, nil
}

// add appends a section. The returned pointer is valid until the next add.
func (r *Report) add(name string, component any) *Section {
	r.Sections = append(r.Sections, Section{Name: name, Fields: ExtractFields(component)})
	return &r.Sections[len(r.Sections)-1]
}

// Field returns the named field, using dotted names for nested values.
func (r Report) Field(section, name string) (Field, bool) {
	for _, s := range r.Sections {
		if s.Name != section {
			continue
		}
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// WriteTo renders the report as an indented text panel.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d @ tick %d\n", r.Kind, r.ID, r.Tick)
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "  [%s]\n", s.Name)
		for _, f := range s.Fields {
			b.WriteString("    ")
			b.WriteString(renderField(f, r.limits))
			b.WriteByte('\n')
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
