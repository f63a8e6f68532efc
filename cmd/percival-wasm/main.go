//go:build js && wasm

// Package main is the WebAssembly entry point for the Percival compiler.
// It exports the compiler to JavaScript and keeps the module alive so the
// exported function outlives main.
//
// Build with:
//
//	GOOS=js GOARCH=wasm go build -o percival.wasm ./cmd/percival-wasm
//
// Usage from JavaScript:
//
//	const result = percivalCompile(src);
//	if (result.errors) { ... } else { evaluate(result.js); }
package main

import (
	"syscall/js"

	percival "github.com/percival-lang/percival-go"
)

func main() {
	done := make(chan struct{})

	js.Global().Set("percivalCompile", js.FuncOf(compile))
	js.Global().Get("console").Call("log", "Percival WASM module initialized")

	<-done
}

// compile parses and compiles a source string, returning either
// {js, deps, results} or {errors: [...]}. Parse errors are reported as
// {message, start, end}; compile and argument errors as {message} only.
func compile(_ js.Value, args []js.Value) any {
	if len(args) != 1 {
		return map[string]any{
			"errors": []any{map[string]any{"message": "percivalCompile expects one argument"}},
		}
	}
	src := args[0].String()

	prog, diags := percival.Parse(src)
	if len(diags) > 0 {
		errs := make([]any, 0, len(diags))
		for _, d := range diags {
			errs = append(errs, map[string]any{
				"message": d.Message,
				"start":   d.Span.Start,
				"end":     d.Span.End,
			})
		}
		return map[string]any{"errors": errs}
	}

	code, err := percival.Compile(prog)
	if err != nil {
		return map[string]any{
			"errors": []any{map[string]any{"message": err.Error()}},
		}
	}

	return map[string]any{
		"js":      code,
		"deps":    toAnySlice(prog.Deps()),
		"results": toAnySlice(prog.Results()),
	}
}

func toAnySlice(names []string) []any {
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = name
	}
	return out
}
