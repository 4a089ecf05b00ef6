package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// HugeInput builds a text with the given number of lines, mixing harmless
// prose with occasional secrets so category counts stay predictable.
func HugeInput(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		if i%100 == 0 {
			fmt.Fprintf(&b, "password = secret%d\n", i)
		} else {
			fmt.Fprintf(&b, "line %d of otherwise ordinary log output\n", i)
		}
	}
	return b.String()
}

// LongLine builds a single line of roughly n bytes with no newline until
// the end.
func LongLine(n int) string {
	return strings.Repeat("x", n) + "\n"
}

// ManyFindings builds n lines that each trigger the password rule.
func ManyFindings(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "password: hunter%d\n", i)
	}
	return b.String()
}

// NulBytes builds input with embedded NUL bytes around a real finding.
func NulBytes() string {
	return "before\x00after\npassword: hun\x00ter2\n\x00\n"
}

// RepeatedTokens builds input designed to stress the rule regexes with
// near-miss prefixes that never complete a match.
func RepeatedTokens(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("password password api_key secret token pwd ")
	}
	b.WriteString("\n")
	return b.String()
}

// WriteLatin1File writes ISO 8859-1 encoded bytes that are not valid UTF-8
// and returns the file path.
func WriteLatin1File(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "latin1.txt")
	content := []byte("clave: contrase\xf1a\ncaf\xe9 au lait\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write latin-1 file: %v", err)
	}
	return path
}
