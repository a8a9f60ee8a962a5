package techniques

import (
	"fmt"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
)

var dummyConditions = []string{
	"True",
	"1 == 1",
	"len([]) == 0",
	"'a' in 'abc'",
	"42 > 0",
	"bool(1)",
}

var predicatesTrue = []string{
	"(7 * 6) == 42",
	"(10 % 3) == 1",
	"len('test') == 4",
	"(5 + 5) > 9",
	"abs(-10) == 10",
}

var predicatesFalse = []string{
	"(2 + 2) == 5",
	"(10 % 3) == 0",
	"len('test') == 5",
	"(5 + 5) < 9",
	"abs(-10) == -10",
}

// addDummyBranches inserts no-op conditional branches after safe lines at
// the configured rate.
func addDummyBranches(src string, ctx *obfuscator.Context) (string, error) {
	rate := ctx.Config.ControlFlow.DummyBranchRate
	lines := splitLines(src)
	out := make([]string, 0, len(lines)+len(lines)/10)
	for i, line := range lines {
		out = append(out, line.text)
		if insertableAfter(line, i == len(lines)-1) && chance(ctx.Rng, rate) {
			cond := dummyConditions[ctx.Rng.Intn(len(dummyConditions))]
			out = append(out, fmt.Sprintf("%sif %s: pass", indentOf(line.text), cond))
		}
	}
	return joinLines(out), nil
}

// addOpaquePredicates guards random lines with predicates whose outcome is
// fixed but not obvious: an always-true integrity check or an always-false
// dead branch.
func addOpaquePredicates(src string, ctx *obfuscator.Context) (string, error) {
	rate := ctx.Config.ControlFlow.OpaquePredicateRate
	lines := splitLines(src)
	out := make([]string, 0, len(lines)+len(lines)/8)
	for i, line := range lines {
		out = append(out, line.text)
		if !insertableAfter(line, i == len(lines)-1) || !chance(ctx.Rng, rate) {
			continue
		}
		indent := indentOf(line.text)
		if ctx.Rng.Intn(2) == 0 {
			p := predicatesTrue[ctx.Rng.Intn(len(predicatesTrue))]
			out = append(out,
				fmt.Sprintf("%sif not (%s):", indent, p),
				fmt.Sprintf("%s    raise RuntimeError('Integrity check failed')", indent))
		} else {
			p := predicatesFalse[ctx.Rng.Intn(len(predicatesFalse))]
			out = append(out,
				fmt.Sprintf("%sif %s:", indent, p),
				fmt.Sprintf("%s    pass", indent))
		}
	}
	return joinLines(out), nil
}
