package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

// DefaultFileName is the baseline file written next to the scanned input
// when no explicit path is given.
const DefaultFileName = ".guardian_baseline.json"

// Finding categories recorded in baseline entries.
const (
	CategoryPassword      = "password"
	CategoryAPIKey        = "api_key"
	CategorySensitiveData = "sensitive_data"
	CategorySecurityIssue = "security_issue"
)

// Baseline is the accepted-findings suppression file.
type Baseline struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"findings"`
}

// Entry is one suppressed finding. Only the fingerprint is matched; the
// category and line are kept for human inspection of the file.
type Entry struct {
	Category    string `json:"category"`
	Line        int    `json:"line"`
	Fingerprint string `json:"fingerprint"`
}

// Load reads a baseline file. A missing file yields a fresh empty baseline.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Baseline{
				Version:   "1.0",
				CreatedAt: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}

	return &b, nil
}

// Save writes the baseline to the given path.
func (b *Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// FromResult builds a baseline suppressing every finding in the result.
func FromResult(res scanner.Result) *Baseline {
	b := &Baseline{
		Version:   "1.0",
		CreatedAt: time.Now(),
	}
	for category, findings := range map[string][]scanner.Finding{
		CategoryPassword:      res.Findings.Passwords,
		CategoryAPIKey:        res.Findings.APIKeys,
		CategorySensitiveData: res.Findings.SensitiveData,
		CategorySecurityIssue: res.Findings.SecurityIssues,
	} {
		for _, f := range findings {
			if !b.IsSuppressed(category, f) {
				b.Add(category, f)
			}
		}
	}
	return b
}

// Add appends a finding to the baseline.
func (b *Baseline) Add(category string, f scanner.Finding) error {
	fp := fingerprint(category, f)
	for _, e := range b.Entries {
		if e.Fingerprint == fp {
			return fmt.Errorf("finding already in baseline")
		}
	}

	b.Entries = append(b.Entries, Entry{
		Category:    category,
		Line:        f.Line,
		Fingerprint: fp,
	})

	return nil
}

// IsSuppressed reports whether the finding matches a baseline entry.
func (b *Baseline) IsSuppressed(category string, f scanner.Finding) bool {
	fp := fingerprint(category, f)
	for _, e := range b.Entries {
		if e.Fingerprint == fp {
			return true
		}
	}
	return false
}

// Filter returns the findings with suppressed entries removed. Category
// slices stay non-nil so the JSON output keeps its arrays.
func (b *Baseline) Filter(f scanner.Findings) scanner.Findings {
	return scanner.Findings{
		Passwords:      b.filterCategory(CategoryPassword, f.Passwords),
		APIKeys:        b.filterCategory(CategoryAPIKey, f.APIKeys),
		SensitiveData:  b.filterCategory(CategorySensitiveData, f.SensitiveData),
		SecurityIssues: b.filterCategory(CategorySecurityIssue, f.SecurityIssues),
	}
}

func (b *Baseline) filterCategory(category string, findings []scanner.Finding) []scanner.Finding {
	filtered := make([]scanner.Finding, 0, len(findings))
	for _, f := range findings {
		if !b.IsSuppressed(category, f) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// fingerprint hashes the category and finding content. Line numbers are
// excluded so a suppressed finding stays suppressed when unrelated edits
// move it.
func fingerprint(category string, f scanner.Finding) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(f.Match))
	h.Write([]byte{0})
	h.Write([]byte(f.Issue))
	h.Write([]byte{0})
	h.Write([]byte(f.Context))
	return fmt.Sprintf("%x", h.Sum(nil))
}
