package checker

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"cookiestatus/pkg/netscape"
)

// placeholderPattern matches values such as YOUR_SID_VALUE.
var placeholderPattern = regexp.MustCompile(`^YOUR_[A-Z0-9_]+_VALUE$`)

// exampleMatcher recognises the shipped template and files that still carry
// its placeholder values.
type exampleMatcher struct {
	digest       [sha256.Size]byte
	placeholders map[string]struct{}
}

func newExampleMatcher(template []byte) (*exampleMatcher, error) {
	f, err := netscape.ParseBytes(template)
	if err != nil {
		return nil, fmt.Errorf("could not parse example template: %w", err)
	}

	m := &exampleMatcher{
		digest:       sha256.Sum256(normalize(template)),
		placeholders: make(map[string]struct{}, len(f.Records)),
	}
	for _, rec := range f.Records {
		if rec.Value != "" {
			m.placeholders[rec.Value] = struct{}{}
		}
	}

	return m, nil
}

// Matches reports whether content is the template, possibly re-saved with
// other line endings, or contains a placeholder on any cookie line. Lines are
// inspected field by field so a placeholder is found even on malformed lines.
func (m *exampleMatcher) Matches(content []byte) bool {
	if sha256.Sum256(normalize(content)) == m.digest {
		return true
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), netscape.MaxLineSize)
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), netscape.HTTPOnlyPrefix)
		if strings.HasPrefix(line, "#") {
			continue
		}

		for _, field := range strings.Fields(line) {
			if m.isPlaceholder(field) {
				return true
			}
		}
	}

	return false
}

func (m *exampleMatcher) isPlaceholder(value string) bool {
	if _, ok := m.placeholders[value]; ok {
		return true
	}

	return placeholderPattern.MatchString(value)
}

// normalize drops carriage returns, trailing whitespace and blank lines.
func normalize(content []byte) []byte {
	var out bytes.Buffer
	for _, line := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.Bytes()
}
