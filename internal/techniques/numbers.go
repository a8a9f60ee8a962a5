package techniques

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/scanner"
)

// obfuscateNumbers replaces small integer literals in code spans with
// equivalent arithmetic. Floats, attribute chains and numbers of 100 or more
// are left alone.
func obfuscateNumbers(src string, ctx *obfuscator.Context) (string, error) {
	var out strings.Builder
	out.Grow(len(src) + len(src)/8)
	for _, sp := range scanner.ScanAll(src) {
		text := sp.Text(src)
		if sp.Kind == scanner.KindCode {
			out.WriteString(rewriteIntegers(text, ctx))
		} else {
			out.WriteString(text)
		}
	}
	return out.String(), nil
}

func rewriteIntegers(code string, ctx *obfuscator.Context) string {
	var out strings.Builder
	i := 0
	for i < len(code) {
		c := code[i]
		if c < '0' || c > '9' {
			out.WriteByte(c)
			i++
			continue
		}
		j := i
		for j < len(code) && code[j] >= '0' && code[j] <= '9' {
			j++
		}
		if !integerToken(code, i, j) {
			out.WriteString(code[i:j])
			i = j
			continue
		}
		n, err := strconv.Atoi(code[i:j])
		if err != nil || n >= 100 {
			out.WriteString(code[i:j])
		} else {
			out.WriteString(integerExpr(n, ctx))
		}
		i = j
	}
	return out.String()
}

// integerToken rejects digit runs that belong to a float, an identifier, or
// an attribute access (1.5, x2, value.0).
func integerToken(code string, start, end int) bool {
	if start > 0 {
		p := code[start-1]
		if p == '.' || scanner.IsIdentChar(p) {
			return false
		}
	}
	if end < len(code) {
		n := code[end]
		if n == '.' || scanner.IsIdentChar(n) {
			return false
		}
	}
	return true
}

func integerExpr(n int, ctx *obfuscator.Context) string {
	switch n {
	case 0:
		return "(1-1)"
	case 1:
		return "(2-1)"
	}
	switch ctx.Rng.Intn(3) {
	case 0:
		if n%2 == 0 {
			return fmt.Sprintf("(%d*2)", n/2)
		}
		return fmt.Sprintf("(%d*2+1)", n/2)
	case 1:
		return fmt.Sprintf("(%d+0)", n)
	default:
		return fmt.Sprintf("(int('%d'))", n)
	}
}
