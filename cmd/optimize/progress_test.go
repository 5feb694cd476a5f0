package main

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/pthm-cable/foodchain/components"
)

func readProgress(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	if err != nil {
		t.Fatalf("progress.csv does not parse: %v", err)
	}
	return rows
}

func TestProgressLog_HeaderNamesSpeciesAndParams(t *testing.T) {
	pv := NewParamVector()
	var b strings.Builder
	if _, err := newProgressLog(&b, pv.Specs); err != nil {
		t.Fatalf("newProgressLog: %v", err)
	}

	rows := readProgress(t, b.String())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
	header := rows[0]
	if len(header) != len(progressColumns)+pv.Dim() {
		t.Fatalf("header has %d columns, want %d", len(header), len(progressColumns)+pv.Dim())
	}
	for _, col := range []string{"sheep_survival", "wolf_survival", "sheep_cycles", "wolf_cycles", "coexisted"} {
		found := false
		for _, h := range header {
			found = found || h == col
		}
		if !found {
			t.Errorf("header missing %q: %v", col, header)
		}
	}
	if header[len(progressColumns)] != pv.Specs[0].Name {
		t.Errorf("first parameter column = %q, want %q", header[len(progressColumns)], pv.Specs[0].Name)
	}
}

func TestProgressLog_RecordKeepsBest(t *testing.T) {
	specs := []ParamSpec{{Name: "a"}, {Name: "b"}}
	var b strings.Builder
	p, err := newProgressLog(&b, specs)
	if err != nil {
		t.Fatalf("newProgressLog: %v", err)
	}

	weak := Evaluation{Fitness: -400, Runs: 3}
	weak.Survival[components.KindSheep], weak.Survival[components.KindWolf] = 400, 250
	strong := Evaluation{Fitness: -1000, Quality: 0.5, Coexisted: 3, Runs: 3}
	strong.Survival[components.KindSheep], strong.Survival[components.KindWolf] = 1000, 1000
	strong.Cycles[components.KindWolf] = 2.5

	for _, rec := range []struct {
		ev     Evaluation
		params []float64
	}{
		{weak, []float64{1, 2}},
		{strong, []float64{3, 4}},
		{weak, []float64{5, 6}},
	} {
		if err := p.Record(rec.ev, rec.params); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if p.evals != 3 || p.bestFitness != -1000 {
		t.Errorf("evals=%d best=%v, want 3 and -1000", p.evals, p.bestFitness)
	}
	if p.bestParams[0] != 3 || p.bestParams[1] != 4 {
		t.Errorf("bestParams = %v, want [3 4]", p.bestParams)
	}

	rows := readProgress(t, b.String())
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header and 3 evaluations", len(rows))
	}
	second := rows[2]
	want := map[int]string{
		0: "2",
		3: "1000.000000",
		4: "1000.000000",
		6: "2.500000",
		7: "3",
		9: "3.000000",
	}
	for col, v := range want {
		if second[col] != v {
			t.Errorf("row 2 column %s = %q, want %q", rows[0][col], second[col], v)
		}
	}
	if !strings.Contains(p.Summary(strong), "coexisted 3/3") {
		t.Errorf("summary = %q", p.Summary(strong))
	}
}
