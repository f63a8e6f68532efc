package percival

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndCompileTransitiveClosure(t *testing.T) {
	src := `
edge(x: 2, y: 3).
edge(x: 3, y: 4).
tc(x, y) :- edge(x, y).
tc(x, y) :- tc(x, y: z), edge(x: z, y).
`
	prog, diags := Parse(src)
	require.Empty(t, diags)

	if diff := cmp.Diff([]string{"edge", "tc"}, prog.Results()); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, prog.Deps())

	js, err := Compile(prog)
	require.NoError(t, err)
	assert.Contains(t, js, "let __percival_first_iteration = true;")
	assert.Contains(t, js, "while (__percival_first_iteration || !(")
	assert.Contains(t, js, "return {edge: ")
}

func TestDependencyDetection(t *testing.T) {
	prog, diags := Parse("tc(x,y) :- edge(x,y). tc(x,y) :- hello(y,x). any(x) :- tc(x).")
	require.Empty(t, diags)

	if diff := cmp.Diff([]string{"edge", "hello"}, prog.Deps()); diff != "" {
		t.Errorf("Deps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"any", "tc"}, prog.Results()); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFailureReturnsDiagnostics(t *testing.T) {
	prog, diags := Parse("bad")
	assert.Nil(t, prog)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Unexpected token in input")
}

func TestReservedWordSafety(t *testing.T) {
	// Binding a reserved identifier as a variable fails to parse.
	prog, diags := Parse("bad(x: continue).\n")
	assert.Nil(t, prog)
	require.NotEmpty(t, diags)

	// Using one as a field name is accepted.
	prog, diags = Parse("ok(x) :- f(continue: x).\n")
	require.Empty(t, diags)

	js, err := Compile(prog)
	require.NoError(t, err)
	assert.Contains(t, js, ".get('continue');")
}

func TestCompileDeterminism(t *testing.T) {
	src := "ok(value) :- year(year), value = mean[mpg] { cars(Year: year, mpg) }.\n"

	var outputs []string
	for i := 0; i < 2; i++ {
		prog, diags := Parse(src)
		require.Empty(t, diags)
		js, err := Compile(prog)
		require.NoError(t, err)
		outputs = append(outputs, js)
	}
	require.Equal(t, outputs[0], outputs[1])
}

func TestCircularAggregateRejected(t *testing.T) {
	src := `
year(y) :- cars(Year: y).
ok(value) :- year(year), value = mean[mpg] { cars(Year: year, mpg) }.
bad(value) :- year(year), value = mean[y] { year(year: y) }.
`
	prog, diags := Parse(src)
	require.Empty(t, diags)

	_, err := Compile(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "derived by this program")
}

func TestEmittedProgramShape(t *testing.T) {
	prog, diags := Parse("hello(x: true, y: false).\n")
	require.Empty(t, diags)

	js, err := Compile(prog)
	require.NoError(t, err)

	// The emitted body is a sequence of declarations, a fixpoint loop,
	// and a final return of the output object.
	assert.Less(t, strings.Index(js, "let "), strings.Index(js, "while ("))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(js), ";"))
	assert.Contains(t, js, "return {hello: ")
}
