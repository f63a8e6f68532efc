package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var outputFile string

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a Percival program to JavaScript",
	Long: `Compile a Percival program and print the emitted JavaScript.

This is the explicit form of the default action. The output is a function
body: the runtime binds it to an async function receiving the input
relations and supplying the Immutable, load, and aggregates namespaces.

Examples:
  # Compile a program to stdout
  percival compile program.percival

  # Compile from stdin into a file
  percival compile -o out.js < program.percival

  # Compile and format the output
  percival compile --format program.percival`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().BoolVarP(&formatOutput, "format", "f", false, "pipe the output through prettier")
}

func runCompile(_ *cobra.Command, args []string) error {
	src, filename, err := readInput(args)
	if err != nil {
		return err
	}

	js, err := parseAndCompile(src, filename)
	if err != nil {
		return err
	}

	if formatOutput {
		js, err = runPrettier(js)
		if err != nil {
			return err
		}
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(js), 0o644); err != nil {
			return fmt.Errorf("failed to write output file %s: %w", outputFile, err)
		}
		return nil
	}

	fmt.Println(js)
	return nil
}

// runPrettier pipes the emitted code through an external prettier with
// the babel parser. The compiler never formats its own output.
func runPrettier(js string) (string, error) {
	cmd := exec.Command("prettier", "--parser", "babel")
	cmd.Stdin = bytes.NewReader([]byte(js))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("prettier failed: %w", err)
	}
	return out.String(), nil
}
