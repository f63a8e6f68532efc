package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	percival "github.com/percival-lang/percival-go"
	"github.com/percival-lang/percival-go/internal/errors"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a Percival program and display the AST",
	Long: `Parse a Percival program and display the abstract syntax tree.

If no file is provided, reads from stdin. By default the program is
echoed back in canonical surface syntax; --json dumps the AST as a
tagged JSON document for external tools.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "dump the AST as JSON")
}

func runParse(_ *cobra.Command, args []string) error {
	src, filename, err := readInput(args)
	if err != nil {
		return err
	}

	prog, diags := percival.Parse(src)
	if len(diags) > 0 {
		reports := errors.FromDiagnostics(diags, src, filename)
		fmt.Fprintln(os.Stderr, errors.FormatReports(reports, true))
		return fmt.Errorf("parsing failed with %d error(s)", len(diags))
	}

	if parseJSON {
		data, err := json.MarshalIndent(prog, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode AST: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(prog.String())
	return nil
}
