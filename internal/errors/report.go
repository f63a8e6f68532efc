// Package errors renders Percival diagnostics for human consumption.
// It formats parse-phase diagnostics with source context, line/column
// information, and caret indicators pointing at the offending span.
//
// The package is deliberately decoupled from the parser: it consumes the
// structured diagnostic model and owns only presentation. Callers that
// want different rendering (editors, notebooks) use the diagnostics
// directly and skip this package.
package errors

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/percival-lang/percival-go/internal/lexer"
	"github.com/percival-lang/percival-go/internal/parser"
)

// Styles for the rendered report, following terminal conventions.
var (
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true) // red-500
	styleCaret  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	styleGutter = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")) // gray-500
	styleBold   = lipgloss.NewStyle().Bold(true)
)

// Report is a single renderable diagnostic bound to its source text.
type Report struct {
	Message string
	Source  string
	File    string
	Pos     lexer.Position
	Span    lexer.Span
}

// FromDiagnostics binds parse diagnostics to their source for rendering.
func FromDiagnostics(diags []*parser.Diagnostic, source, file string) []*Report {
	reports := make([]*Report, 0, len(diags))
	for _, d := range diags {
		reports = append(reports, &Report{
			Message: d.Message,
			Source:  source,
			File:    file,
			Pos:     d.Pos,
			Span:    d.Span,
		})
	}
	return reports
}

// Format renders the report with its source line and a caret marker.
// When color is false the output is plain text.
func (r *Report) Format(color bool) string {
	var sb strings.Builder

	paint := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	if r.File != "" {
		sb.WriteString(fmt.Sprintf("%s %s:%s\n", paint(styleError, "Error in"), r.File, r.Pos))
	} else {
		sb.WriteString(fmt.Sprintf("%s %s\n", paint(styleError, "Error at line"), r.Pos))
	}

	sourceLine := r.sourceLine(r.Pos.Line)
	if sourceLine != "" {
		gutter := fmt.Sprintf("%4d | ", r.Pos.Line)
		sb.WriteString(paint(styleGutter, gutter))
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		width := r.caretWidth(sourceLine)
		sb.WriteString(strings.Repeat(" ", len(gutter)+r.Pos.Column-1))
		sb.WriteString(paint(styleCaret, strings.Repeat("^", width)))
		sb.WriteString("\n")
	}

	sb.WriteString(paint(styleBold, r.Message))
	return sb.String()
}

// caretWidth clamps the span to the rest of the error line, at least one
// caret wide.
func (r *Report) caretWidth(sourceLine string) int {
	width := r.Span.End - r.Span.Start
	if remaining := len(sourceLine) - (r.Pos.Column - 1); width > remaining {
		width = remaining
	}
	if width < 1 {
		width = 1
	}
	return width
}

// sourceLine extracts a 1-indexed line from the source code.
func (r *Report) sourceLine(lineNum int) string {
	if r.Source == "" {
		return ""
	}
	lines := strings.Split(r.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatReports renders multiple reports, with a summary header when
// there is more than one.
func FormatReports(reports []*Report, color bool) string {
	if len(reports) == 0 {
		return ""
	}
	if len(reports) == 1 {
		return reports[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Compilation failed with %d errors:\n\n", len(reports)))
	for i, report := range reports {
		sb.WriteString(report.Format(color))
		if i < len(reports)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
