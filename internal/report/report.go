package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

// For testing purposes
var now = time.Now

// Input bundles everything one report covers. Pattern findings and the
// external analysis are both optional; metadata is always rendered.
type Input struct {
	Metadata scanner.Metadata
	Pattern  *scanner.Findings
	Analysis *mistral.Analysis
}

// Render produces the Markdown report for one scan. The document always
// carries the header, metadata block and summary; category and analysis
// sections appear only when they have content.
func Render(in Input) string {
	var b strings.Builder

	b.WriteString("# Security Analysis Report\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", now().Format("2006-01-02 15:04:05"))
	b.WriteString("\n---\n")

	b.WriteString("## Analysis Metadata\n")
	fmt.Fprintf(&b, "- **Content Length:** %d characters\n", in.Metadata.ContentLength)
	fmt.Fprintf(&b, "- **Line Count:** %d lines\n", in.Metadata.LineCount)
	b.WriteString("\n---\n")

	if in.Pattern != nil {
		writeCategory(&b, "Potential Passwords Found", in.Pattern.Passwords)
		writeCategory(&b, "Potential API Keys Found", in.Pattern.APIKeys)
		writeCategory(&b, "Potential Sensitive Data Found", in.Pattern.SensitiveData)
		writeCategory(&b, "Security Issues Found", in.Pattern.SecurityIssues)
	}

	if in.Analysis != nil {
		writeAnalysis(&b, in.Analysis)
	}

	writeSummary(&b, in)

	return b.String()
}

// Write renders the report and writes it to path, creating missing parent
// directories and overwriting any existing file.
func Write(in Input, path string) error {
	content := Render(in)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func writeCategory(b *strings.Builder, title string, findings []scanner.Finding) {
	if len(findings) == 0 {
		return
	}

	fmt.Fprintf(b, "## 🔴 %s (%d)\n", title, len(findings))
	for _, f := range findings {
		fmt.Fprintf(b, "### Line %d\n", f.Line)
		if f.Issue != "" {
			fmt.Fprintf(b, "**Issue:** %s\n", f.Issue)
		} else {
			fmt.Fprintf(b, "**Match:** `%s`\n", f.Match)
		}
		fmt.Fprintf(b, "**Context:** `%s`\n", f.Context)
		b.WriteString("\n")
	}
	b.WriteString("\n---\n")
}

func writeSummary(b *strings.Builder, in Input) {
	var passwords, apiKeys, sensitive, issues int
	if in.Pattern != nil {
		passwords = len(in.Pattern.Passwords)
		apiKeys = len(in.Pattern.APIKeys)
		sensitive = len(in.Pattern.SensitiveData)
		issues = len(in.Pattern.SecurityIssues)
	}
	total := passwords + apiKeys + sensitive + issues

	b.WriteString("## 📊 Summary\n")
	fmt.Fprintf(b, "- **Total Findings:** %d\n", total)
	fmt.Fprintf(b, "- **Passwords:** %d\n", passwords)
	fmt.Fprintf(b, "- **API Keys:** %d\n", apiKeys)
	fmt.Fprintf(b, "- **Sensitive Data:** %d\n", sensitive)
	fmt.Fprintf(b, "- **Security Issues:** %d\n", issues)
	if in.Analysis != nil {
		b.WriteString("- **Mistral AI Analysis:** ✅ Completed\n")
	} else {
		b.WriteString("- **Mistral AI Analysis:** ❌ Not performed\n")
	}

	if in.Analysis != nil {
		if recs := stringList(in.Analysis.Data, "remediation_recommendations"); len(recs) > 0 {
			if len(recs) > 3 {
				recs = recs[:3]
			}
			b.WriteString("\n**Top Remediation Recommendations:**\n")
			for n, rec := range recs {
				fmt.Fprintf(b, "%d. %s\n", n+1, rec)
			}
		}
	}

	if total > 0 || in.Analysis != nil {
		b.WriteString("\n⚠️  **Recommendation:** Review the findings above and address any genuine security issues.\n")
	} else {
		b.WriteString("\n✅ **No security issues detected.**\n")
	}
}
