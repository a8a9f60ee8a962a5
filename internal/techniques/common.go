package techniques

import (
	mathrand "math/rand"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/scanner"
)

// opaqueMask returns one flag per byte of src, true where the byte belongs to
// a string literal or comment. Insertion and collection passes consult it so
// they never touch literal text.
func opaqueMask(src string) []bool {
	mask := make([]bool, len(src))
	for _, sp := range scanner.ScanAll(src) {
		if !sp.Kind.Opaque() {
			continue
		}
		for i := sp.Start; i < sp.End; i++ {
			mask[i] = true
		}
	}
	return mask
}

// maskOpaque blanks string literals and comments with spaces, preserving
// length and line structure so regex collection runs on code only.
func maskOpaque(src string) string {
	mask := opaqueMask(src)
	b := []byte(src)
	for i := range b {
		if mask[i] && b[i] != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

// sourceLine is one line of the input plus whether new statements may be
// inserted after it. A line is unsafe when it starts or ends inside a
// multi-line literal, or ends with an explicit continuation.
type sourceLine struct {
	text   string
	masked string // text with literal and comment bytes blanked
	safe   bool
}

func splitLines(src string) []sourceLine {
	mask := opaqueMask(src)
	raw := strings.Split(src, "\n")
	maskedRaw := strings.Split(maskOpaque(src), "\n")

	lines := make([]sourceLine, len(raw))
	offset := 0
	for i, text := range raw {
		start := offset
		end := offset + len(text) // index of the '\n' (or EOF)
		safe := true
		if start < len(mask) && mask[start] {
			safe = false
		}
		if end < len(mask) && mask[end] {
			safe = false
		}
		if strings.HasSuffix(text, "\\") {
			safe = false
		}
		lines[i] = sourceLine{text: text, masked: maskedRaw[i], safe: safe}
		offset = end + 1
	}
	return lines
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)]
}

// chance rolls an integer percentage against the run RNG.
func chance(rng *mathrand.Rand, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return rng.Intn(100) < percent
}

// blockOpeners are statement prefixes after which inserting a sibling
// statement would change the meaning of the following block.
var blockOpeners = []string{
	"def ", "class ", "if ", "elif ", "else", "for ", "while ",
	"try", "except", "finally", "with ", "import ", "from ", "@",
	"return", "raise", "break", "continue", "yield", "global ", "nonlocal ",
}

// insertableAfter reports whether a new statement may safely follow line.
func insertableAfter(line sourceLine, last bool) bool {
	if !line.safe || last {
		return false
	}
	trimmed := strings.TrimSpace(line.text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	if strings.HasSuffix(trimmed, ":") {
		return false
	}
	for _, p := range blockOpeners {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	// Unbalanced brackets mean the statement continues on the next line.
	if bracketDelta(line.masked) != 0 {
		return false
	}
	return true
}

func bracketDelta(line string) int {
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}
