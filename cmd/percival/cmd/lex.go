package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/percival-lang/percival-go/internal/lexer"
)

var (
	showSpans bool
	showTypes bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Percival program",
	Long: `Tokenize a Percival program and print the resulting tokens.

Useful for debugging the lexer and understanding how source text is
tokenized. Lexical errors are reported after the token stream.

Examples:
  # Tokenize a program
  percival lex program.percival

  # Show spans and token types
  percival lex --show-span --show-type program.percival`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().BoolVar(&showSpans, "show-span", false, "show token spans (start..end)")
	lexCmd.Flags().BoolVar(&showTypes, "show-type", false, "show token type names")
}

func runLex(_ *cobra.Command, args []string) error {
	src, _, err := readInput(args)
	if err != nil {
		return err
	}

	l := lexer.New(src)
	for {
		tok := l.NextToken()
		if tok.Type == lexer.EOF {
			break
		}
		line := tok.String()
		if showTypes {
			line = fmt.Sprintf("%-8s %s", tok.Type, line)
		}
		if showSpans {
			line = fmt.Sprintf("%-10s %s", tok.Span(), line)
		}
		fmt.Println(line)
	}

	if errs := l.Errors(); len(errs) > 0 {
		for _, lexErr := range errs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", lexErr.Pos, lexErr.Message)
		}
		return fmt.Errorf("lexing produced %d error(s)", len(errs))
	}
	return nil
}
