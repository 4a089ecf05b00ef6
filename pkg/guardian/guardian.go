// Package guardian exposes the text security analysis pipeline as a
// library: read and normalize an input, scan it for leaked credentials and
// insecure patterns, and render the Markdown report.
package guardian

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/report"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/textfile"
)

// Result types re-exported so callers never import internal packages.
type (
	Result   = scanner.Result
	Findings = scanner.Findings
	Finding  = scanner.Finding
	Metadata = scanner.Metadata
)

// Transforms selects the normalization steps applied before scanning.
type Transforms = textfile.Options

// ScanText runs pattern analysis over already-loaded text.
func ScanText(text string) Result {
	return scanner.Scan(text)
}

// ScanFile reads, normalizes and scans a file. An empty path or "-" reads
// standard input.
func ScanFile(path string, transforms Transforms) (Result, error) {
	content, err := textfile.Read(path)
	if err != nil {
		return Result{}, err
	}
	return scanner.Scan(textfile.Transform(content, transforms)), nil
}

// ScanReader normalizes and scans everything read from r.
func ScanReader(r io.Reader, transforms Transforms) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read input: %w", err)
	}
	content, err := textfile.Decode(data)
	if err != nil {
		return Result{}, err
	}
	return scanner.Scan(textfile.Transform(content, transforms)), nil
}

// MarshalResult encodes a result as indented JSON.
func MarshalResult(res Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// UnmarshalResult decodes a result produced by MarshalResult.
func UnmarshalResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("failed to parse result: %w", err)
	}
	return res, nil
}

// Report renders the Markdown security report for a result.
func Report(res Result) string {
	return report.Render(report.Input{Metadata: res.Metadata, Pattern: &res.Findings})
}

// WriteReport renders the report and writes it to path, creating parent
// directories as needed.
func WriteReport(res Result, path string) error {
	return report.Write(report.Input{Metadata: res.Metadata, Pattern: &res.Findings}, path)
}
