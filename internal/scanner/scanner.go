// Package scanner classifies Python source text into rewritable code spans
// and opaque spans (string literals and comments). It is a lexical scanner,
// not a parser: it understands just enough of Python's literal syntax to keep
// the rewrite engine from touching text it must not touch.
package scanner

import "strings"

// SpanKind tags a region of source text.
type SpanKind int

const (
	// KindCode marks text that identifier rewriting may modify.
	KindCode SpanKind = iota
	// KindString marks a string literal, including its quotes and any
	// prefix letters (r, b, u, f and combinations).
	KindString
	// KindComment marks a '#' comment up to (not including) the newline.
	KindComment
)

// Opaque reports whether spans of this kind must be left untouched by
// rewriting. Interpolated expressions inside an f-string are reported
// separately as nested code spans.
func (k SpanKind) Opaque() bool { return k != KindCode }

func (k SpanKind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindString:
		return "string"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Span is a contiguous region of the source, [Start, End).
// For f-string literals, Inner holds the embedded expression regions in
// left-to-right order, with offsets absolute into the original source.
type Span struct {
	Start int
	End   int
	Kind  SpanKind
	Inner []Span
}

// Text returns the span's slice of src.
func (sp Span) Text(src string) string { return src[sp.Start:sp.End] }

// prefix letters that may precede a Python string quote.
const stringPrefixChars = "rRbBuUfF"

// Scanner walks a source string once, producing spans in source order.
// Spans are contiguous and non-overlapping; a fresh Scanner (or Reset)
// restarts the walk. The zero value is not usable; call New.
type Scanner struct {
	src       string
	pos       int
	malformed bool
}

// New returns a Scanner positioned at the start of src.
func New(src string) *Scanner {
	return &Scanner{src: src}
}

// Reset rewinds the scanner to the beginning of its source.
func (s *Scanner) Reset() {
	s.pos = 0
	s.malformed = false
}

// Malformed reports whether the scanner hit an unterminated literal and
// classified the remainder of the source as opaque. The scan still
// terminates; callers use this to decide whether to trust the result.
func (s *Scanner) Malformed() bool { return s.malformed }

// Next returns the next span, or ok=false when the source is exhausted.
func (s *Scanner) Next() (Span, bool) {
	if s.pos >= len(s.src) {
		return Span{}, false
	}
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '#' {
			if s.pos > start {
				// Emit the pending code span first.
				sp := Span{Start: start, End: s.pos, Kind: KindCode}
				return sp, true
			}
			return s.scanComment(), true
		}
		if lit := s.literalStart(s.pos); lit >= 0 {
			if lit > start {
				s.pos = lit
				return Span{Start: start, End: lit, Kind: KindCode}, true
			}
			return s.scanString(lit), true
		}
		s.pos++
	}
	return Span{Start: start, End: s.pos, Kind: KindCode}, true
}

// ScanAll returns every span of src in order.
func ScanAll(src string) []Span {
	sc := New(src)
	var spans []Span
	for {
		sp, ok := sc.Next()
		if !ok {
			return spans
		}
		spans = append(spans, sp)
	}
}

// literalStart reports the index where a string literal starts if one begins
// at or just after pos, taking prefix letters into account. It returns -1
// when pos does not start a literal. A prefix letter only counts when it is
// not the tail of a longer identifier (e.g. the 'f' in "def" is code).
func (s *Scanner) literalStart(pos int) int {
	c := s.src[pos]
	if c == '\'' || c == '"' {
		return pos
	}
	if !isPrefixChar(c) {
		return -1
	}
	if pos > 0 && isIdentChar(s.src[pos-1]) {
		return -1
	}
	// Up to two prefix letters (rb"...", fr'...', etc.) before the quote.
	i := pos
	for n := 0; n < 2 && i < len(s.src) && isPrefixChar(s.src[i]); n++ {
		i++
	}
	if i < len(s.src) && (s.src[i] == '\'' || s.src[i] == '"') {
		return pos
	}
	return -1
}

func (s *Scanner) scanComment() Span {
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
	return Span{Start: start, End: s.pos, Kind: KindComment}
}

// scanString consumes a string literal beginning at start (prefix included)
// and returns its span. Unterminated literals swallow the rest of the source
// and mark the scanner malformed, so the walk always terminates.
func (s *Scanner) scanString(start int) Span {
	i := start
	interpolated := false
	for i < len(s.src) && isPrefixChar(s.src[i]) {
		if s.src[i] == 'f' || s.src[i] == 'F' {
			interpolated = true
		}
		i++
	}
	quote := s.src[i]
	triple := strings.HasPrefix(s.src[i:], strings.Repeat(string(quote), 3))

	bodyStart := i + 1
	var end int
	if triple {
		bodyStart = i + 3
		end = s.findTripleEnd(bodyStart, quote)
	} else {
		end = s.findSingleEnd(bodyStart, quote)
	}
	if end < 0 {
		s.malformed = true
		end = len(s.src)
	}
	s.pos = end

	sp := Span{Start: start, End: end, Kind: KindString}
	if interpolated {
		bodyEnd := end
		if !s.malformed {
			if triple {
				bodyEnd = end - 3
			} else {
				bodyEnd = end - 1
			}
		}
		sp.Inner = scanInterpolations(s.src, bodyStart, bodyEnd)
	}
	return sp
}

// findSingleEnd returns the index one past the closing quote of a single-line
// literal whose body starts at pos, or -1 if unterminated. A quote preceded
// by an odd number of backslashes does not terminate the literal. A bare
// newline ends the scan conservatively: Python would reject the literal, and
// treating the rest of the line as opaque keeps the rewriter safe.
func (s *Scanner) findSingleEnd(pos int, quote byte) int {
	for i := pos; i < len(s.src); i++ {
		switch s.src[i] {
		case quote:
			if !escaped(s.src, i) {
				return i + 1
			}
		case '\n':
			if !escaped(s.src, i) {
				return -1
			}
		}
	}
	return -1
}

// findTripleEnd returns the index one past the closing triple quote, or -1.
func (s *Scanner) findTripleEnd(pos int, quote byte) int {
	closer := strings.Repeat(string(quote), 3)
	for i := pos; i+3 <= len(s.src); i++ {
		if s.src[i:i+3] == closer && !escaped(s.src, i) {
			return i + 3
		}
	}
	return -1
}

// escaped reports whether the character at index i is preceded by an odd
// number of backslashes.
func escaped(src string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// scanInterpolations finds the {...} embedded expressions of an f-string
// body, returning their expression regions as code spans. Doubled braces
// ({{ and }}) are literal text. Within an expression, a ':' or '!' at
// bracket depth zero and outside nested quotes starts the format spec or
// conversion and ends the rewritable region; resolution is strictly
// left to right.
func scanInterpolations(src string, start, end int) []Span {
	var inner []Span
	i := start
	for i < end {
		c := src[i]
		if c == '{' {
			if i+1 < end && src[i+1] == '{' {
				i += 2
				continue
			}
			exprStart := i + 1
			exprEnd, closeBrace := interpolationEnd(src, exprStart, end)
			if closeBrace < 0 {
				// Unclosed brace: leave the remainder opaque.
				return inner
			}
			if exprEnd > exprStart {
				inner = append(inner, Span{Start: exprStart, End: exprEnd, Kind: KindCode})
			}
			i = closeBrace + 1
			continue
		}
		if c == '}' && i+1 < end && src[i+1] == '}' {
			i += 2
			continue
		}
		i++
	}
	return inner
}

// interpolationEnd scans an embedded expression starting at pos. It returns
// the end of the rewritable expression region and the index of the closing
// brace, or (-1, -1) when the brace never closes before limit. Everything
// after the conversion or format-spec marker is opaque, including nested
// replacement fields such as {width} in {x:{width}}.
func interpolationEnd(src string, pos, limit int) (exprEnd, closeBrace int) {
	depth := 0
	var quote byte
	exprEnd = -1
	for i := pos; i < limit; i++ {
		c := src[i]
		if quote != 0 {
			if c == quote && !escaped(src, i) {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				if exprEnd < 0 {
					exprEnd = i
				}
				return exprEnd, i
			}
			depth--
		case ':', '!':
			// '!=' is an operator, not a conversion marker.
			if c == '!' && i+1 < limit && src[i+1] == '=' {
				continue
			}
			if depth == 0 && exprEnd < 0 {
				exprEnd = i
			}
		}
	}
	return -1, -1
}

func isPrefixChar(c byte) bool {
	return strings.IndexByte(stringPrefixChars, c) >= 0
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// IsIdentChar reports whether c belongs to Python's identifier alphabet.
// Exported for the rewrite engine's token boundary checks.
func IsIdentChar(c byte) bool { return isIdentChar(c) }
