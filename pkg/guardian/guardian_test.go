package guardian

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanText(t *testing.T) {
	res := ScanText("password: hunter2\nurl = http://example.com\n")

	assert.Equal(t, 2, res.Metadata.LineCount)
	assert.Len(t, res.Findings.Passwords, 1)
	assert.Len(t, res.Findings.SecurityIssues, 1)
	assert.Equal(t, 2, res.Findings.Total())
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("  PASSWORD: HUNTER2  \n"), 0644))

	res, err := ScanFile(path, Transforms{Lowercase: true, Strip: true})
	require.NoError(t, err)

	require.Len(t, res.Findings.Passwords, 1)
	assert.Equal(t, "password: hunter2", res.Findings.Passwords[0].Match)
}

func TestScanFile_Missing(t *testing.T) {
	_, err := ScanFile(filepath.Join(t.TempDir(), "nope.txt"), Transforms{})

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanReader(t *testing.T) {
	res, err := ScanReader(strings.NewReader("token: abc123\n"), Transforms{})
	require.NoError(t, err)

	assert.Len(t, res.Findings.APIKeys, 1)
}

func TestScanReader_Latin1(t *testing.T) {
	res, err := ScanReader(bytes.NewReader([]byte("clave: caf\xe9\npassword: hunter2\n")), Transforms{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Metadata.LineCount)
	assert.Len(t, res.Findings.Passwords, 1)
}

func TestMarshalResultRoundTrip(t *testing.T) {
	res := ScanText("password: hunter2\ncontact: a@b.com\n")

	data, err := MarshalResult(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content_length"`)

	back, err := UnmarshalResult(data)
	require.NoError(t, err)
	assert.Equal(t, res, back)
}

func TestUnmarshalResult_Invalid(t *testing.T) {
	_, err := UnmarshalResult([]byte("{nope"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse result")
}

func TestReport(t *testing.T) {
	res := ScanText("password: hunter2\n")
	out := Report(res)

	assert.True(t, strings.HasPrefix(out, "# Security Analysis Report"))
	assert.Contains(t, out, "## 🔴 Potential Passwords Found (1)")
	assert.Contains(t, out, "- **Total Findings:** 1")
}

func TestWriteReport(t *testing.T) {
	res := ScanText("hello world\n")
	path := filepath.Join(t.TempDir(), "reports", "out.md")

	require.NoError(t, WriteReport(res, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "✅ **No security issues detected.**")
}
