// Package rewrite applies identifier renamings to Python source text without
// disturbing string literals or comments. It sits on top of the span scanner:
// only code spans (and the embedded expressions of f-strings) are rewritten.
package rewrite

import (
	"sort"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/scanner"
)

// literal prefix letters that single-character mappings must never shadow.
// Renaming a bare 'f' would turn f"..." into something else entirely.
const skipSingleChars = "frbuFRBU"

// Apply substitutes every whole-token occurrence of each mapping key inside
// the code regions of src. Longer names are substituted first so that
// overlapping names do not shadow each other. The mapping is not mutated.
// Apply never fails: regions the scanner cannot resolve are returned as-is.
func Apply(src string, mapping map[string]string) string {
	if len(mapping) == 0 || src == "" {
		return src
	}
	names := sortedNames(mapping)

	var out strings.Builder
	out.Grow(len(src) + len(src)/8)

	sc := scanner.New(src)
	for {
		sp, ok := sc.Next()
		if !ok {
			break
		}
		switch {
		case sp.Kind == scanner.KindCode:
			out.WriteString(replaceTokens(sp.Text(src), names, mapping))
		case len(sp.Inner) > 0:
			out.WriteString(rewriteInterpolated(src, sp, names, mapping))
		default:
			out.WriteString(sp.Text(src))
		}
	}
	return out.String()
}

// rewriteInterpolated reconstructs an f-string literal, rewriting only the
// embedded expression regions and copying the literal text around them.
// Sub-expressions are processed in left-to-right order.
func rewriteInterpolated(src string, sp scanner.Span, names []string, mapping map[string]string) string {
	var out strings.Builder
	last := sp.Start
	for _, in := range sp.Inner {
		out.WriteString(src[last:in.Start])
		out.WriteString(replaceTokens(src[in.Start:in.End], names, mapping))
		last = in.End
	}
	out.WriteString(src[last:sp.End])
	return out.String()
}

// replaceTokens rewrites whole-token occurrences of each name within a code
// fragment. A match is a token only when both neighbours fall outside the
// identifier alphabet (or the fragment boundary).
func replaceTokens(code string, names []string, mapping map[string]string) string {
	for _, name := range names {
		code = replaceToken(code, name, mapping[name])
	}
	return code
}

func replaceToken(code, name, repl string) string {
	if name == "" || name == repl {
		return code
	}
	var out strings.Builder
	i := 0
	for {
		j := strings.Index(code[i:], name)
		if j < 0 {
			break
		}
		j += i
		end := j + len(name)
		if boundedLeft(code, j) && boundedRight(code, end) {
			out.WriteString(code[i:j])
			out.WriteString(repl)
		} else {
			out.WriteString(code[i:end])
		}
		i = end
	}
	if i == 0 {
		return code
	}
	out.WriteString(code[i:])
	return out.String()
}

func boundedLeft(code string, i int) bool {
	return i == 0 || !scanner.IsIdentChar(code[i-1])
}

func boundedRight(code string, i int) bool {
	return i >= len(code) || !scanner.IsIdentChar(code[i])
}

// sortedNames returns the mapping keys longest-first (ties broken
// lexicographically for determinism), dropping names that are not valid
// identifier tokens and single letters that collide with string literal
// prefixes.
func sortedNames(mapping map[string]string) []string {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		if !validToken(name) {
			continue
		}
		if len(name) == 1 && strings.Contains(skipSingleChars, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func validToken(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !scanner.IsIdentChar(name[i]) {
			return false
		}
	}
	return name[0] < '0' || name[0] > '9'
}
