package textfile

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// For testing purposes
var stdin io.Reader = os.Stdin

// Read returns the content of path as a string. An empty path or "-" reads
// from standard input. Content that is not valid UTF-8 is re-decoded as
// Latin-1, which accepts any byte value.
func Read(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return Decode(data)
}

// Decode converts raw bytes to a UTF-8 string. Invalid UTF-8 is re-decoded
// as Latin-1, which accepts any byte value.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode input: %w", err)
	}
	return string(decoded), nil
}

// Options control the preprocessing steps applied before a scan. Enabled
// steps run in field order; Lines runs last and produces the final form.
type Options struct {
	Lowercase      bool
	Strip          bool
	CollapseSpaces bool
	Lines          bool
}

// Transform applies the enabled preprocessing steps to content.
func Transform(content string, opts Options) string {
	result := content

	if opts.Lowercase {
		result = strings.ToLower(result)
	}
	if opts.Strip {
		result = strings.TrimSpace(result)
	}
	if opts.CollapseSpaces {
		result = strings.Join(strings.Fields(result), " ")
	}
	if opts.Lines {
		lines := strings.FieldsFunc(result, func(r rune) bool { return r == '\n' || r == '\r' })
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				kept = append(kept, trimmed)
			}
		}
		result = strings.Join(kept, "\n")
	}

	return result
}
