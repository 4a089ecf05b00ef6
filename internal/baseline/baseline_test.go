package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

func TestLoad_MissingFile(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	require.NoError(t, err)
	assert.Equal(t, "1.0", b.Version)
	assert.Empty(t, b.Entries)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse baseline file")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	res := scanner.Scan("password: hunter2\nurl = http://example.com\n")
	require.NotZero(t, res.Findings.Total())

	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, FromResult(res).Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, res.Findings.Total())

	filtered := loaded.Filter(res.Findings)
	assert.Zero(t, filtered.Total())
}

func TestAdd_Duplicate(t *testing.T) {
	b := &Baseline{Version: "1.0"}
	f := scanner.Finding{Line: 3, Match: "password: hunter2", Context: "password: hunter2"}

	require.NoError(t, b.Add(CategoryPassword, f))

	err := b.Add(CategoryPassword, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in baseline")
}

func TestFilter_KeepsUnsuppressedFindings(t *testing.T) {
	suppressed := scanner.Finding{Line: 1, Match: "password: hunter2", Context: "password: hunter2"}
	kept := scanner.Finding{Line: 2, Match: "password: other", Context: "password: other"}

	b := &Baseline{Version: "1.0"}
	require.NoError(t, b.Add(CategoryPassword, suppressed))

	filtered := b.Filter(scanner.Findings{Passwords: []scanner.Finding{suppressed, kept}})

	require.Len(t, filtered.Passwords, 1)
	assert.Equal(t, "password: other", filtered.Passwords[0].Match)
}

func TestFilter_CategorySlicesStayNonNil(t *testing.T) {
	b := &Baseline{Version: "1.0"}

	filtered := b.Filter(scanner.Findings{})

	assert.NotNil(t, filtered.Passwords)
	assert.NotNil(t, filtered.APIKeys)
	assert.NotNil(t, filtered.SensitiveData)
	assert.NotNil(t, filtered.SecurityIssues)
}

func TestFilter_SameCategoryOnly(t *testing.T) {
	f := scanner.Finding{Line: 1, Match: "token", Context: "token"}

	b := &Baseline{Version: "1.0"}
	require.NoError(t, b.Add(CategoryPassword, f))

	filtered := b.Filter(scanner.Findings{APIKeys: []scanner.Finding{f}})
	assert.Len(t, filtered.APIKeys, 1)
}

func TestIsSuppressed_IgnoresLineNumber(t *testing.T) {
	b := &Baseline{Version: "1.0"}
	require.NoError(t, b.Add(CategoryPassword, scanner.Finding{
		Line:    3,
		Match:   "password: hunter2",
		Context: "password: hunter2",
	}))

	moved := scanner.Finding{Line: 17, Match: "password: hunter2", Context: "password: hunter2"}
	assert.True(t, b.IsSuppressed(CategoryPassword, moved))
}
