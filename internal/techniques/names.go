package techniques

import (
	"regexp"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/rewrite"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

var (
	defPattern    = regexp.MustCompile(`(?m)^[ \t]*def\s+([A-Za-z_]\w*)`)
	classPattern  = regexp.MustCompile(`(?m)^[ \t]*class\s+([A-Za-z_]\w*)`)
	assignPattern = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_]\w*)\s*=[^=]`)
	forPattern    = regexp.MustCompile(`(?m)^[ \t]*for\s+([A-Za-z_]\w*)\s+in\b`)
)

// collectNames runs the given patterns over the masked source (literals and
// comments blanked) and returns the captured identifiers in first-seen order.
func collectNames(src string, patterns ...*regexp.Regexp) []string {
	masked := maskOpaque(src)
	seen := map[string]bool{}
	var names []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(masked, -1) {
			name := m[1]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// buildMapping scrambles the collected names, honoring the context's
// reserved set, and records them into record.
func buildMapping(ctx *obfuscator.Context, names []string, sType scrambler.ScrambleType, record map[string]string) map[string]string {
	sc := ctx.Scrambler(sType)
	mapping := map[string]string{}
	for _, name := range names {
		if ctx.IsReserved(name) || sc.ShouldIgnore(name) {
			continue
		}
		replacement := sc.Scramble(name)
		if replacement == name {
			continue
		}
		mapping[name] = replacement
		record[name] = replacement
		ctx.Reserve(replacement)
	}
	return mapping
}

// basicNameChange renames definitions, classes, assignment targets and loop
// variables in one sweep.
func basicNameChange(src string, ctx *obfuscator.Context) (string, error) {
	names := collectNames(src, defPattern, classPattern, assignPattern, forPattern)
	mapping := buildMapping(ctx, names, scrambler.TypeVariable, ctx.VariableMapping)
	return rewrite.Apply(src, mapping), nil
}

// obfuscateFunctionNames renames function definitions (and thereby their
// call sites, since replacement is whole-token).
func obfuscateFunctionNames(src string, ctx *obfuscator.Context) (string, error) {
	names := collectNames(src, defPattern)
	mapping := buildMapping(ctx, names, scrambler.TypeFunction, ctx.FunctionMapping)
	return rewrite.Apply(src, mapping), nil
}

// obfuscateVariableNames renames assignment and loop targets.
func obfuscateVariableNames(src string, ctx *obfuscator.Context) (string, error) {
	names := collectNames(src, assignPattern, forPattern)
	mapping := buildMapping(ctx, names, scrambler.TypeVariable, ctx.VariableMapping)
	return rewrite.Apply(src, mapping), nil
}
