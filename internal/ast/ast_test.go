package ast

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tcProgram() *Program {
	// tc(x, y) :- edge(x, y). tc(x, y) :- hello(y, x). any(x) :- tc(x).
	id := func(name string) Value { return &Id{Name: name} }
	return &Program{
		Rules: []*Rule{
			{
				Goal:    &Fact{Name: "tc", Props: map[string]Value{"x": id("x"), "y": id("y")}},
				Clauses: []Clause{&Fact{Name: "edge", Props: map[string]Value{"x": id("x"), "y": id("y")}}},
			},
			{
				Goal:    &Fact{Name: "tc", Props: map[string]Value{"x": id("x"), "y": id("y")}},
				Clauses: []Clause{&Fact{Name: "hello", Props: map[string]Value{"y": id("y"), "x": id("x")}}},
			},
			{
				Goal:    &Fact{Name: "any", Props: map[string]Value{"x": id("x")}},
				Clauses: []Clause{&Fact{Name: "tc", Props: map[string]Value{"x": id("x")}}},
			},
		},
	}
}

func TestResultsAndDeps(t *testing.T) {
	prog := tcProgram()

	if diff := cmp.Diff([]string{"any", "tc"}, prog.Results()); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"edge", "hello"}, prog.Deps()); diff != "" {
		t.Errorf("Deps mismatch (-want +got):\n%s", diff)
	}
	if len(prog.ImportNames()) != 0 {
		t.Errorf("ImportNames = %v, want empty", prog.ImportNames())
	}
}

func TestDepsExcludeImports(t *testing.T) {
	prog := tcProgram()
	prog.Imports = append(prog.Imports, &Import{Name: "edge", URI: "npm://x/edge.json"})

	if diff := cmp.Diff([]string{"hello"}, prog.Deps()); diff != "" {
		t.Errorf("Deps mismatch (-want +got):\n%s", diff)
	}
}

func TestDepsResultsImportsDisjoint(t *testing.T) {
	prog := tcProgram()
	prog.Imports = append(prog.Imports, &Import{Name: "hello", URI: "gh://x/hello.json"})

	seen := make(map[string]int)
	for _, name := range prog.Results() {
		seen[name]++
	}
	for _, name := range prog.Deps() {
		seen[name]++
	}
	for _, name := range prog.ImportNames() {
		seen[name]++
	}
	for name, count := range seen {
		if count > 1 {
			t.Errorf("relation %q appears in %d of results/deps/imports", name, count)
		}
	}
}

func TestDepsSeeAggregateSubqueries(t *testing.T) {
	// ok(value) :- year(year), value = mean[mpg] { cars(Year: year, mpg) }.
	prog := &Program{
		Rules: []*Rule{{
			Goal: &Fact{Name: "ok", Props: map[string]Value{"value": &Id{Name: "value"}}},
			Clauses: []Clause{
				&Fact{Name: "year", Props: map[string]Value{"year": &Id{Name: "year"}}},
				&Binding{Name: "value", Value: &Aggregate{
					Operator: "mean",
					Value:    &Id{Name: "mpg"},
					Subquery: []Clause{&Fact{Name: "cars", Props: map[string]Value{
						"Year": &Id{Name: "year"},
						"mpg":  &Id{Name: "mpg"},
					}}},
				}},
			},
		}},
	}

	if diff := cmp.Diff([]string{"cars", "year"}, prog.Deps()); diff != "" {
		t.Errorf("Deps mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsCanonicalOrder(t *testing.T) {
	fact := &Fact{Name: "f", Props: map[string]Value{
		"z": &Id{Name: "z"},
		"a": &Id{Name: "a"},
		"m": &Id{Name: "m"},
	}}
	if diff := cmp.Diff([]string{"a", "m", "z"}, fact.Fields()); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramString(t *testing.T) {
	prog := &Program{
		Imports: []*Import{{Name: "cars", URI: "npm://vega-datasets/data/cars.json"}},
		Rules: []*Rule{{
			Goal: &Fact{Name: "ok", Props: map[string]Value{"x": &Number{Text: "1"}}},
		}},
	}
	got := prog.String()
	want := "import cars from \"npm://vega-datasets/data/cars.json\"\nok(x: 1).\n"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestJSONDump(t *testing.T) {
	prog := &Program{
		Rules: []*Rule{{
			Goal: &Fact{Name: "ok", Props: map[string]Value{
				"flag": &Boolean{Value: true},
				"name": &String{Text: `a\n`},
			}},
			Clauses: []Clause{
				&Expr{Source: "1 < 2"},
				&Binding{Name: "n", Value: &Aggregate{
					Operator: "count",
					Value:    &Id{Name: "x"},
					Subquery: []Clause{&Fact{Name: "f", Props: map[string]Value{"x": &Id{Name: "x"}}}},
				}},
			},
		}},
	}

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	dump := string(data)

	for _, tag := range []string{
		`"type":"fact"`,
		`"type":"expr"`,
		`"type":"binding"`,
		`"type":"aggregate"`,
		`"type":"boolean"`,
		`"type":"string"`,
		`"type":"id"`,
		`"operator":"count"`,
	} {
		if !strings.Contains(dump, tag) {
			t.Errorf("dump missing %s:\n%s", tag, dump)
		}
	}

	// The dump must stay valid JSON round-trippable by generic decoders.
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
}
