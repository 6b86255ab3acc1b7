// Package normalize canonicalizes generated source files so regeneration
// noise never shows up as a spurious working-tree change.
package normalize

import "bytes"

// Normalizer rewrites file content into a canonical form. Implementations
// must be idempotent: normalizing already-normalized content is a no-op.
type Normalizer interface {
	Name() string
	Normalize(content []byte) []byte
}

// CSource canonicalizes mypyc-generated C: CRLF line endings become LF,
// trailing whitespace is stripped, runs of blank lines collapse to one, and
// the file ends with exactly one newline.
type CSource struct{}

func (CSource) Name() string { return "c-source" }

func (CSource) Normalize(content []byte) []byte {
	if len(content) == 0 {
		return content
	}

	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))

	lines := bytes.Split(normalized, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = bytes.TrimRight(line, " \t")
		if len(line) == 0 {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return []byte("\n")
	}
	return append(bytes.Join(out, []byte("\n")), '\n')
}
