package techniques

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/rewrite"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

var runtimeBuiltinPattern = regexp.MustCompile(`\b(compile|exec|eval)\b`)

// runtimeCodeGeneration hides direct uses of compile, exec and eval behind
// generated aliases bound at the top of the file.
func runtimeCodeGeneration(src string, ctx *obfuscator.Context) (string, error) {
	sc := ctx.Scrambler(scrambler.TypeAlias)

	used := map[string]bool{}
	for _, m := range runtimeBuiltinPattern.FindAllStringSubmatch(maskOpaque(src), -1) {
		used[m[1]] = true
	}

	mapping := map[string]string{}
	var header strings.Builder
	for _, name := range []string{"compile", "exec", "eval"} {
		if !used[name] {
			continue
		}
		alias := sc.Generate()
		ctx.Reserve(alias)
		ctx.AliasMapping[name] = alias
		mapping[name] = alias
		fmt.Fprintf(&header, "%s = %s\n", alias, name)
	}
	if len(mapping) == 0 {
		return src, nil
	}
	return header.String() + "\n" + rewrite.Apply(src, mapping), nil
}

// antiDebugging prepends a tripwire that kills the process when a trace
// function is installed, as debuggers do.
func antiDebugging(src string, ctx *obfuscator.Context) (string, error) {
	sc := ctx.Scrambler(scrambler.TypeFunction)
	name := sc.Generate()
	ctx.Reserve(name)

	var header strings.Builder
	header.WriteString("import sys\n")
	header.WriteString("import os\n")
	fmt.Fprintf(&header, "%s = lambda: sys.gettrace() is None or os._exit(1)\n", name)
	fmt.Fprintf(&header, "%s()\n\n", name)
	return header.String() + src, nil
}

// fragmentCode splits the source into base64-encoded chunks cut at top-level
// statement boundaries and reassembles them with an exec loop. Sources with a
// single fragment are returned unchanged.
func fragmentCode(src string, ctx *obfuscator.Context) (string, error) {
	per := ctx.Config.Fragmentation.LinesPerFragment
	if per <= 0 {
		per = 5
	}

	lines := splitLines(src)
	var fragments []string
	var current []string
	depth := 0
	for i, line := range lines {
		current = append(current, line.text)
		depth += bracketDelta(line.masked)
		if len(current) < per || depth != 0 || !cutBoundary(lines, i) {
			continue
		}
		fragments = append(fragments, strings.Join(current, "\n"))
		current = nil
	}
	if len(current) > 0 {
		fragments = append(fragments, strings.Join(current, "\n"))
	}
	if len(fragments) < 2 {
		return src, nil
	}

	sc := ctx.Scrambler(scrambler.TypeVariable)
	names := make([]string, len(fragments))
	var out strings.Builder
	for i, frag := range fragments {
		name := sc.Generate()
		ctx.Reserve(name)
		names[i] = name
		encoded := base64.StdEncoding.EncodeToString([]byte(frag))
		fmt.Fprintf(&out, "%s = '%s'\n", name, encoded)
	}
	loopVar := sc.Generate()
	ctx.Reserve(loopVar)
	fmt.Fprintf(&out, "for %s in [%s]:\n", loopVar, strings.Join(names, ", "))
	fmt.Fprintf(&out, "    exec(__import__('base64').b64decode(%s).decode(), globals())\n", loopVar)
	return out.String(), nil
}

// cutBoundary reports whether the source may be split after line i: the line
// must end a complete top-level statement and the next statement must start
// at column zero.
func cutBoundary(lines []sourceLine, i int) bool {
	line := lines[i]
	if !line.safe {
		return false
	}
	trimmed := strings.TrimSpace(line.masked)
	if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(line.text, "\\") {
		return false
	}
	for j := i + 1; j < len(lines); j++ {
		next := lines[j]
		if strings.TrimSpace(next.masked) == "" && next.safe {
			continue
		}
		return next.safe && indentOf(next.text) == ""
	}
	return false
}
