package codegen

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/percival-lang/percival-go/internal/ast"
	"github.com/percival-lang/percival-go/internal/lexer"
	"github.com/percival-lang/percival-go/internal/parser"
)

const transitiveClosure = `
edge(x: 2, y: 3).
edge(x: 3, y: 4).
tc(x, y) :- edge(x, y).
tc(x, y) :- tc(x, y: z), edge(x: z, y).
`

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.Empty(t, p.Diagnostics(), "test program must parse cleanly")
	return prog
}

func mustCompile(t *testing.T, src string) string {
	t.Helper()
	js, err := Compile(mustParse(t, src))
	require.NoError(t, err)
	return js
}

func compileErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := Compile(mustParse(t, src))
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok, "error must be a *codegen.Error, got %T", err)
	return cerr
}

func TestCompileDeterministic(t *testing.T) {
	first := mustCompile(t, transitiveClosure)
	second := mustCompile(t, transitiveClosure)
	require.Equal(t, first, second, "two compilations of the same source must be byte-identical")
}

func TestFieldOrderIndependentOutput(t *testing.T) {
	a := mustCompile(t, "edge(x: 2, y: 3).\ntc(x, y) :- edge(x, y).\n")
	b := mustCompile(t, "edge(y: 3, x: 2).\ntc(y, x) :- edge(y, x).\n")
	require.Equal(t, a, b, "permuting surface prop order must not change the output")
}

func TestSemiNaiveVariants(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		variants int // one goal-membership check per variant
		guards   int // one first-iteration guard per static rule
	}{
		{
			name:     "transitive closure",
			src:      transitiveClosure,
			variants: 5, // 2 ground facts + 1 for tc:-edge + 2 for tc:-tc,edge
			guards:   2, // only the ground facts read no derived relation
		},
		{
			name:     "static body",
			src:      "ok(x) :- input(x).",
			variants: 1,
			guards:   1,
		},
		{
			name:     "two recursive facts",
			src:      "p(x) :- q(x). q(x) :- r(x). s(x) :- p(x), q(x).",
			variants: 4, // p:-q is 1, q:-r is 1 (static), s:-p,q is 2
			guards:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js := mustCompile(t, tt.src)
			assert.Equal(t, tt.variants, strings.Count(js, ".includes("),
				"goal membership checks")
			assert.Equal(t, tt.guards, strings.Count(js, "if ("+varFirstIter+") {"),
				"first-iteration guards")
		})
	}
}

func TestMakeIndices(t *testing.T) {
	t.Run("transitive closure needs one index", func(t *testing.T) {
		indices := makeIndices(mustParse(t, transitiveClosure))
		require.Len(t, indices, 1)
		assert.Equal(t, "edge", indices[0].Name)
		assert.Equal(t, []string{"x"}, indices[0].Bound)
	})

	t.Run("deduplicated across rules", func(t *testing.T) {
		src := "a(y) :- f(x), g(x, y). b(y) :- f(x), g(x, y)."
		indices := makeIndices(mustParse(t, src))
		require.Len(t, indices, 1)
		assert.Equal(t, "g", indices[0].Name)
		assert.Equal(t, []string{"x"}, indices[0].Bound)
	})

	t.Run("no index for full scans", func(t *testing.T) {
		indices := makeIndices(mustParse(t, "ok(x, y) :- input(x, y)."))
		assert.Empty(t, indices)
	})

	t.Run("literal fields are bound", func(t *testing.T) {
		indices := makeIndices(mustParse(t, "ok(x) :- input(x, kind: \"a\", n: 3)."))
		require.Len(t, indices, 1)
		assert.Equal(t, []string{"kind", "n"}, indices[0].Bound)
	})

	t.Run("aggregate subqueries are walked", func(t *testing.T) {
		src := "ok(value) :- year(year), value = mean[mpg] { cars(Year: year, mpg) }."
		indices := makeIndices(mustParse(t, src))
		require.Len(t, indices, 1)
		assert.Equal(t, "cars", indices[0].Name)
		assert.Equal(t, []string{"Year"}, indices[0].Bound)
	})
}

func TestIndicesCoverJoins(t *testing.T) {
	js := mustCompile(t, transitiveClosure)
	// The bound edge lookup goes through an index, not a scan.
	assert.Contains(t, js, "_index")
	assert.Contains(t, js, "?? []")
	// Derived relations keep an incremental index for the delta variant.
	assert.Contains(t, js, "edge_index_update")
}

func TestEmittedHostExpressions(t *testing.T) {
	js := mustCompile(t, "ok(x: `2 * num`) :- input(x: num), `num < 10`.\n")

	// Free identifiers become locals with their surface names so that
	// host expressions can reference them verbatim.
	assert.Contains(t, js, ".get('x');")
	assert.Contains(t, js, "const num = ")
	assert.Contains(t, js, "if ((num < 10)) {")
	assert.Contains(t, js, "{x: (2 * num)}")
}

func TestEmittedBooleans(t *testing.T) {
	js := mustCompile(t, "hello(x: true, y: false).\n")
	assert.Contains(t, js, "{x: true, y: false}")
	assert.Contains(t, js, "return {hello: ")
}

func TestEmittedStrings(t *testing.T) {
	js := mustCompile(t, `hello(name: "eric\t").`+"\n")
	// Escapes pass through exactly as written.
	assert.Contains(t, js, `{name: "eric\t"}`)
}

func TestEmittedAggregate(t *testing.T) {
	js := mustCompile(t, "ok(value) :- year(year), value = mean[mpg] { cars(Year: year, mpg) }.\n")

	assert.Contains(t, js, "__percival.aggregates.mean(")
	assert.Contains(t, js, "(() => {")
	assert.Contains(t, js, ".push(mpg);")
	// The subquery joins through the synthesized cars index.
	assert.Contains(t, js, "{Year: year}")
}

func TestEmittedImports(t *testing.T) {
	src := `
import cars from "npm://vega-datasets/data/cars.json"
import football from "gh://vega/vega-datasets@next/data/football.json"
import hello from "https://example.com/hello.json"
ok(Name) :- cars(Name).
`
	js := mustCompile(t, src)

	assert.Contains(t, js, `await __percival.load("https://cdn.jsdelivr.net/npm/vega-datasets/data/cars.json")`)
	assert.Contains(t, js, `await __percival.load("https://cdn.jsdelivr.net/gh/vega/vega-datasets@next/data/football.json")`)
	assert.Contains(t, js, `await __percival.load("https://example.com/hello.json")`)
	// Imports are surfaced in the output object alongside results.
	assert.Contains(t, js, "return {cars: ")
	assert.Contains(t, js, "football: ")
	assert.Contains(t, js, "hello: ")
	assert.Contains(t, js, "ok: ")
}

func TestImportURL(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://example.com/data.json", "https://example.com/data.json"},
		{"http://example.com/data.json", "http://example.com/data.json"},
		{"gh://vega/vega-datasets@next/data/football.json",
			"https://cdn.jsdelivr.net/gh/vega/vega-datasets@next/data/football.json"},
		{"npm://vega-datasets/data/barley.json",
			"https://cdn.jsdelivr.net/npm/vega-datasets/data/barley.json"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := importURL(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, uri := range []string{"ftp://example.com/x", "data.json", ""} {
		_, err := importURL(uri)
		require.Error(t, err, "uri %q", uri)
		assert.Equal(t, ErrUnknownProtocol, err.(*Error).Kind)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{
			name: "duplicate import",
			src:  "import a from \"npm://x/a.json\"\nimport a from \"npm://x/b.json\"",
			kind: ErrDuplicateImport,
		},
		{
			name: "goal import conflict",
			src:  "import edge from \"npm://x/edge.json\"\nedge(x: 1).",
			kind: ErrGoalImportConflict,
		},
		{
			name: "unknown protocol",
			src:  "import a from \"ftp://example.com/a.json\"",
			kind: ErrUnknownProtocol,
		},
		{
			name: "duplicate variable",
			src:  "ok(x) :- f(x), x = `1`.",
			kind: ErrDuplicateVariable,
		},
		{
			name: "unknown aggregate",
			src:  "ok(n) :- f(x), n = median[x] { g(x) }.",
			kind: ErrUnknownAggregate,
		},
		{
			name: "circular aggregate reference",
			src:  "tc(y) :- f(y). total(n) :- f(x), n = sum[y] { tc(y) }.",
			kind: ErrCircularReference,
		},
		{
			name: "free identifier in ground rule",
			src:  "person(name).",
			kind: ErrUndefinedVariable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := compileErr(t, tt.src)
			assert.Equal(t, tt.kind, cerr.Kind, "message: %s", cerr.Message)
		})
	}
}

func TestCompileEmptyProgram(t *testing.T) {
	js := mustCompile(t, "\n")
	assert.Contains(t, js, "return {};")
}

func TestCompileSnapshots(t *testing.T) {
	t.Run("transitive closure", func(t *testing.T) {
		snaps.MatchSnapshot(t, mustCompile(t, transitiveClosure))
	})
	t.Run("host expressions", func(t *testing.T) {
		snaps.MatchSnapshot(t, mustCompile(t, "ok(x: `2 * num`) :- input(x: num), `num < 10`.\n"))
	})
	t.Run("aggregate over import", func(t *testing.T) {
		src := `
import cars from "npm://vega-datasets/data/cars.json"
year(year: Year) :- cars(Year).
ok(year, value) :- year(year), value = mean[mpg] { cars(Year: year, Miles_per_Gallon: mpg) }.
`
		snaps.MatchSnapshot(t, mustCompile(t, src))
	})
}
