package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	percival "github.com/percival-lang/percival-go"
	"github.com/percival-lang/percival-go/internal/errors"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var formatOutput bool

var rootCmd = &cobra.Command{
	Use:   "percival [file]",
	Short: "Percival compiler",
	Long: `percival compiles Percival programs to JavaScript.

Percival is a Datalog dialect evaluated bottom-up to a fixpoint. The
compiler emits a JavaScript function body that joins relations through
synthesized indices, iterates rules semi-naively, and returns the derived
relations. Host expressions, stratified aggregates, and external data
imports are compiled in place.

With no file argument the program is read from standard input.`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runCompile,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.Flags().BoolVarP(&formatOutput, "format", "f", false, "pipe the output through prettier")
}

// readInput reads the program from the given file or from stdin, and
// appends a trailing newline when missing so that a final line comment
// stays valid.
func readInput(args []string) (src, filename string, err error) {
	if len(args) == 1 {
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		src = string(content)
	} else {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		src = string(content)
		filename = "<stdin>"
	}
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	return src, filename, nil
}

// parseAndCompile runs the full pipeline, rendering diagnostics to
// stderr on failure.
func parseAndCompile(src, filename string) (string, error) {
	prog, diags := percival.Parse(src)
	if len(diags) > 0 {
		reports := errors.FromDiagnostics(diags, src, filename)
		fmt.Fprintln(os.Stderr, errors.FormatReports(reports, true))
		return "", fmt.Errorf("parsing failed with %d error(s)", len(diags))
	}

	js, err := percival.Compile(prog)
	if err != nil {
		return "", fmt.Errorf("compilation failed: %w", err)
	}
	return js, nil
}
