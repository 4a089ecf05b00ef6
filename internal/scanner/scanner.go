package scanner

import (
	"strings"
	"unicode/utf8"
)

// Finding represents a single pattern hit within the scanned text
type Finding struct {
	Line    int    `json:"line"`
	Match   string `json:"match,omitempty"`
	Issue   string `json:"issue,omitempty"`
	Context string `json:"context"`
}

// Findings groups the hits of one scan into the four report categories
type Findings struct {
	Passwords      []Finding `json:"passwords"`
	APIKeys        []Finding `json:"api_keys"`
	SensitiveData  []Finding `json:"sensitive_data"`
	SecurityIssues []Finding `json:"security_issues"`
}

// Total returns the number of findings across all four categories
func (f Findings) Total() int {
	return len(f.Passwords) + len(f.APIKeys) + len(f.SensitiveData) + len(f.SecurityIssues)
}

// Metadata describes the content that was scanned
type Metadata struct {
	ContentLength int `json:"content_length"`
	LineCount     int `json:"line_count"`
}

// Result is the complete outcome of one scan
type Result struct {
	Metadata Metadata `json:"metadata"`
	Findings Findings `json:"findings"`
}

// Scan evaluates the full rule set against every line of text and collects
// the hits into categorized findings. The function is pure and never fails;
// empty input yields an empty result. Content length counts characters, not
// bytes, and line numbers are 1-based.
func Scan(text string) Result {
	res := Result{
		Metadata: Metadata{ContentLength: utf8.RuneCountInString(text)},
		Findings: Findings{
			Passwords:      []Finding{},
			APIKeys:        []Finding{},
			SensitiveData:  []Finding{},
			SecurityIssues: []Finding{},
		},
	}

	lines := splitLines(text)
	res.Metadata.LineCount = len(lines)

	for i, line := range lines {
		context := strings.TrimSpace(line)

		for _, re := range passwordPatterns {
			for _, match := range re.FindAllString(line, -1) {
				res.Findings.Passwords = append(res.Findings.Passwords, Finding{
					Line:    i + 1,
					Match:   match,
					Context: context,
				})
			}
		}

		for _, re := range apiKeyPatterns {
			for _, match := range re.FindAllString(line, -1) {
				res.Findings.APIKeys = append(res.Findings.APIKeys, Finding{
					Line:    i + 1,
					Match:   match,
					Context: context,
				})
			}
		}

		for _, re := range sensitivePatterns {
			for _, match := range re.FindAllString(line, -1) {
				res.Findings.SensitiveData = append(res.Findings.SensitiveData, Finding{
					Line:    i + 1,
					Match:   match,
					Context: context,
				})
			}
		}

		// Issue rules report at most once per line each.
		for _, rule := range issueRules {
			if loc := rule.pattern.FindStringIndex(line); loc != nil {
				res.Findings.SecurityIssues = append(res.Findings.SecurityIssues, Finding{
					Line:    i + 1,
					Issue:   rule.description,
					Context: context,
				})
			}
		}
	}

	return res
}

// splitLines splits text on \n, \r\n and \r. A trailing terminator does not
// produce an empty final segment, and empty input produces no segments.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}

	return lines
}
