package techniques

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/rewrite"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

var (
	importPattern     = regexp.MustCompile(`^import\s+([A-Za-z_]\w*(?:\.\w+)*)(?:\s+as\s+([A-Za-z_]\w*))?$`)
	fromSinglePattern = regexp.MustCompile(`^from\s+([A-Za-z_]\w*(?:\.\w+)*)\s+import\s+([A-Za-z_]\w*)(?:\s+as\s+([A-Za-z_]\w*))?$`)
	fromMultiPattern  = regexp.MustCompile(`^from\s+([A-Za-z_]\w*(?:\.\w+)*)\s+import\s+([A-Za-z_]\w*(?:\s+as\s+[A-Za-z_]\w*)?(?:\s*,\s*[A-Za-z_]\w*(?:\s+as\s+[A-Za-z_]\w*)?)+)$`)
)

// dynamicImports rewrites import statements into __import__ calls with
// char-code encoded module names, binding each import to a generated alias.
// All references to the original names are then redirected to the aliases.
// Star imports, relative imports and __future__ imports are kept as-is.
//
// The reference rewrite runs on the original text and the generated
// assignments are spliced in afterwards, so an imported name like "join"
// cannot clobber the join call inside its own encoded spelling.
func dynamicImports(src string, ctx *obfuscator.Context) (string, error) {
	sc := ctx.Scrambler(scrambler.TypeAlias)
	aliasMapping := map[string]string{}

	bind := func(original string) string {
		alias := sc.Generate()
		aliasMapping[original] = alias
		ctx.AliasMapping[original] = alias
		ctx.Reserve(original, alias)
		return alias
	}

	lines := splitLines(src)
	replacements := map[int][]string{} // line index -> generated statements
	for i, line := range lines {
		stripped := strings.TrimSpace(line.masked)
		indent := indentOf(line.text)
		if !line.safe || strings.HasPrefix(stripped, "from __future__") {
			continue
		}

		if m := importPattern.FindStringSubmatch(stripped); m != nil {
			module, asName := m[1], m[2]
			original := asName
			if original == "" {
				parts := strings.Split(module, ".")
				original = parts[len(parts)-1]
			}
			ctx.Reserve(module)
			alias := bind(original)
			replacements[i] = []string{
				fmt.Sprintf("%s%s = __import__(%s)", indent, alias, charCodeExpr(module)),
			}
			continue
		}

		if m := fromSinglePattern.FindStringSubmatch(stripped); m != nil {
			module, item, asName := m[1], m[2], m[3]
			original := asName
			if original == "" {
				original = item
			}
			ctx.Reserve(module, item)
			alias := bind(original)
			replacements[i] = []string{
				fmt.Sprintf("%s%s = getattr(__import__(%s), %s)",
					indent, alias, charCodeExpr(module), charCodeExpr(item)),
			}
			continue
		}

		if m := fromMultiPattern.FindStringSubmatch(stripped); m != nil {
			module := m[1]
			ctx.Reserve(module)
			var generated []string
			for _, item := range strings.Split(m[2], ",") {
				item = strings.TrimSpace(item)
				name, asName := item, ""
				if idx := strings.Index(item, " as "); idx >= 0 {
					name = strings.TrimSpace(item[:idx])
					asName = strings.TrimSpace(item[idx+4:])
				}
				original := asName
				if original == "" {
					original = name
				}
				ctx.Reserve(name)
				alias := bind(original)
				generated = append(generated, fmt.Sprintf("%s%s = getattr(__import__(%s), %s)",
					indent, alias, charCodeExpr(module), charCodeExpr(name)))
			}
			replacements[i] = generated
		}
	}

	if len(replacements) == 0 {
		return src, nil
	}

	// Identifier substitution never adds or removes newlines, so the line
	// numbering survives the rewrite.
	rewritten := strings.Split(rewrite.Apply(src, aliasMapping), "\n")
	out := make([]string, 0, len(rewritten))
	for i, text := range rewritten {
		if generated, ok := replacements[i]; ok {
			out = append(out, generated...)
		} else {
			out = append(out, text)
		}
	}
	return joinLines(out), nil
}

var callPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)

// indirectFunctionCalls routes calls to locally defined functions through
// generated proxy functions that resolve the target via globals().
func indirectFunctionCalls(src string, ctx *obfuscator.Context) (string, error) {
	sc := ctx.Scrambler(scrambler.TypeFunction)

	defined := map[string]bool{}
	for _, name := range collectNames(src, defPattern) {
		if !ctx.IsReserved(name) && !sc.ShouldIgnore(name) {
			defined[name] = true
		}
	}
	if len(defined) == 0 {
		return src, nil
	}

	// Only proxy functions with an actual call site. Matches on def and
	// class lines are declarations, not calls.
	lines := splitLines(src)
	proxies := map[string]string{} // original -> proxy name
	for _, line := range lines {
		stripped := strings.TrimSpace(line.masked)
		if strings.HasPrefix(stripped, "def ") || strings.HasPrefix(stripped, "class ") {
			continue
		}
		for _, m := range callPattern.FindAllStringSubmatch(line.masked, -1) {
			name := m[1]
			if defined[name] && proxies[name] == "" {
				proxy := sc.Generate()
				ctx.Reserve(proxy)
				proxies[name] = proxy
			}
		}
	}
	if len(proxies) == 0 {
		return src, nil
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line.masked), "def ") {
			out = append(out, line.text)
			continue
		}
		text, maskedLine := line.text, line.masked
		for name, proxy := range proxies {
			text, maskedLine = replaceCalls(text, maskedLine, name, proxy)
		}
		out = append(out, text)
	}

	var header strings.Builder
	for _, name := range collectNames(src, defPattern) {
		proxy, ok := proxies[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&header, "def %s(*args, **kwargs):\n    return globals()[%s](*args, **kwargs)\n\n",
			proxy, "'"+name+"'")
	}
	return header.String() + joinLines(out), nil
}

// replaceCalls rewrites whole-token call sites of name within a single line,
// using the masked text for matching so literal content is never touched.
// Both the text and its mask are rebuilt to keep offsets aligned.
func replaceCalls(text, masked, name, proxy string) (string, string) {
	var outText, outMask strings.Builder
	last := 0
	for _, loc := range callPattern.FindAllStringSubmatchIndex(masked, -1) {
		nameStart, nameEnd := loc[2], loc[3]
		if masked[nameStart:nameEnd] != name {
			continue
		}
		outText.WriteString(text[last:nameStart])
		outMask.WriteString(masked[last:nameStart])
		outText.WriteString(proxy)
		outMask.WriteString(proxy)
		last = nameEnd
	}
	if last == 0 {
		return text, masked
	}
	outText.WriteString(text[last:])
	outMask.WriteString(masked[last:])
	return outText.String(), outMask.String()
}
