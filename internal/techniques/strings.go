package techniques

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/config"
	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/scanner"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

// simpleLiteral is a plain single-line '...' or "..." literal: no prefix
// letters, no triple quotes, no escape sequences, no quote character of
// either kind in the content (split-concat requotes parts in single
// quotes). Only these are rewritten; f-strings, raw and bytes literals,
// and docstrings keep their spelling.
func simpleLiteral(text string) (content string, ok bool) {
	if len(text) < 2 {
		return "", false
	}
	quote := text[0]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	if text[len(text)-1] != quote {
		return "", false
	}
	if strings.HasPrefix(text, strings.Repeat(string(quote), 3)) {
		return "", false
	}
	body := text[1 : len(text)-1]
	if strings.ContainsAny(body, "\\\n'\"") {
		return "", false
	}
	return body, true
}

// rewriteStringLiterals walks the source and hands every eligible literal to
// repl, which returns the replacement expression (or ok=false to keep it).
func rewriteStringLiterals(src string, minLen int, repl func(content string) (string, bool)) string {
	var out strings.Builder
	out.Grow(len(src) + len(src)/4)
	for _, sp := range scanner.ScanAll(src) {
		text := sp.Text(src)
		if sp.Kind != scanner.KindString || len(sp.Inner) > 0 {
			out.WriteString(text)
			continue
		}
		content, ok := simpleLiteral(text)
		if !ok || len([]rune(content)) < minLen {
			out.WriteString(text)
			continue
		}
		if expr, done := repl(content); done {
			out.WriteString(expr)
		} else {
			out.WriteString(text)
		}
	}
	return out.String()
}

// charCodeExpr builds the chr-join spelling of a string.
func charCodeExpr(content string) string {
	codes := make([]string, 0, len(content))
	for _, r := range content {
		codes = append(codes, fmt.Sprintf("%d", r))
	}
	return fmt.Sprintf("''.join([chr(c) for c in [%s]])", strings.Join(codes, ", "))
}

func base64Expr(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	return fmt.Sprintf("__import__('base64').b64decode('%s').decode()", encoded)
}

func hexExpr(content string) string {
	return fmt.Sprintf("bytes.fromhex('%s').decode()", hex.EncodeToString([]byte(content)))
}

// splitConcatExpr splits the string at random rune boundaries and rejoins
// the parts with +.
func splitConcatExpr(content string, ctx *obfuscator.Context) string {
	runes := []rune(content)
	if len(runes) < 2 {
		return "'" + content + "'"
	}
	parts := 2 + ctx.Rng.Intn(2)
	if parts > len(runes) {
		parts = len(runes)
	}
	cuts := map[int]bool{}
	for len(cuts) < parts-1 {
		cuts[1+ctx.Rng.Intn(len(runes)-1)] = true
	}
	var quoted []string
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || cuts[i] {
			quoted = append(quoted, "'"+string(runes[start:i])+"'")
			start = i
		}
	}
	return "(" + strings.Join(quoted, "+") + ")"
}

// encodeStrings rewrites simple literals using the configured encoding.
func encodeStrings(src string, ctx *obfuscator.Context) (string, error) {
	minLen := ctx.Config.Strings.MinLength
	encode := charCodeExpr
	switch ctx.Config.CustomEncodings.StringEncoding {
	case config.StringEncodingBase64:
		encode = base64Expr
	case config.StringEncodingHex:
		encode = hexExpr
	}
	out := rewriteStringLiterals(src, minLen, func(content string) (string, bool) {
		expr := encode(content)
		ctx.StringMapping[content] = expr
		return expr, true
	})
	return out, nil
}

// advancedStringObfuscation picks a random encoding per literal.
func advancedStringObfuscation(src string, ctx *obfuscator.Context) (string, error) {
	minLen := ctx.Config.Strings.MinLength
	out := rewriteStringLiterals(src, minLen, func(content string) (string, bool) {
		var expr string
		switch ctx.Rng.Intn(4) {
		case 0:
			expr = charCodeExpr(content)
		case 1:
			expr = base64Expr(content)
		case 2:
			expr = hexExpr(content)
		default:
			expr = splitConcatExpr(content, ctx)
		}
		ctx.StringMapping[content] = expr
		return expr, true
	})
	return out, nil
}

// dynamicStringAssembly hoists literals into generated helper functions and
// replaces each occurrence with a call.
func dynamicStringAssembly(src string, ctx *obfuscator.Context) (string, error) {
	const minLen = 3
	sc := ctx.Scrambler(scrambler.TypeString)

	var helpers []string
	byContent := map[string]string{} // content -> helper name
	out := rewriteStringLiterals(src, minLen, func(content string) (string, bool) {
		name, seen := byContent[content]
		if !seen {
			name = sc.Generate()
			byContent[content] = name
			ctx.Reserve(name)
			ctx.StringMapping[content] = name + "()"
			helpers = append(helpers, fmt.Sprintf(
				"def %s():\n    return %s\n", name, charCodeExpr(content)))
		}
		return name + "()", true
	})

	if len(helpers) == 0 {
		return out, nil
	}
	return strings.Join(helpers, "\n") + "\n\n" + out, nil
}
