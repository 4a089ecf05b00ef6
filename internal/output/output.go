package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/report"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

// Format defines the supported output formats
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Document is the JSON envelope for one scan result
type Document struct {
	Metadata scanner.Metadata  `json:"metadata"`
	Findings scanner.Findings  `json:"findings"`
	Analysis *mistral.Analysis `json:"mistral_analysis,omitempty"`
}

// Write writes one scan result to the specified output
func Write(res scanner.Result, analysis *mistral.Analysis, format Format, w io.Writer) error {
	switch format {
	case FormatConsole:
		return writeConsole(res, analysis, w)
	case FormatJSON:
		return writeJSON(res, analysis, w)
	case FormatMarkdown:
		return writeMarkdown(res, analysis, w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeConsole writes the result in a human-readable table format
func writeConsole(res scanner.Result, analysis *mistral.Analysis, w io.Writer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Line", "Match / Issue", "Context"})

	appendRows(t, "Password", res.Findings.Passwords)
	appendRows(t, "API Key", res.Findings.APIKeys)
	appendRows(t, "Sensitive Data", res.Findings.SensitiveData)
	appendRows(t, "Security Issue", res.Findings.SecurityIssues)

	t.Render()

	fmt.Fprintf(w, "\nTotal findings: %d (%d lines scanned)\n", res.Findings.Total(), res.Metadata.LineCount)
	if analysis != nil {
		fmt.Fprintf(w, "Mistral AI analysis: %s\n", analysis.Kind)
	}
	return nil
}

func appendRows(t table.Writer, category string, findings []scanner.Finding) {
	for _, f := range findings {
		detail := f.Match
		if f.Issue != "" {
			detail = f.Issue
		}
		t.AppendRow(table.Row{category, f.Line, detail, f.Context})
	}
}

// writeJSON writes the result as a single JSON document
func writeJSON(res scanner.Result, analysis *mistral.Analysis, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{
		Metadata: res.Metadata,
		Findings: res.Findings,
		Analysis: analysis,
	})
}

// writeMarkdown writes the full Markdown report
func writeMarkdown(res scanner.Result, analysis *mistral.Analysis, w io.Writer) error {
	_, err := io.WriteString(w, report.Render(report.Input{
		Metadata: res.Metadata,
		Pattern:  &res.Findings,
		Analysis: analysis,
	}))
	return err
}
