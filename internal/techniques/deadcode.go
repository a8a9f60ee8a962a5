package techniques

import (
	"fmt"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

// insertDeadCode sprinkles harmless statements after safe lines. Generated
// names come from the variable scrambler so they cannot collide with
// renamings done by other techniques.
func insertDeadCode(src string, ctx *obfuscator.Context) (string, error) {
	rate := ctx.Config.DeadCode.InjectionRate
	sc := ctx.Scrambler(scrambler.TypeVariable)

	lines := splitLines(src)
	out := make([]string, 0, len(lines)+len(lines)/10)
	for i, line := range lines {
		out = append(out, line.text)
		if !insertableAfter(line, i == len(lines)-1) || !chance(ctx.Rng, rate) {
			continue
		}
		indent := indentOf(line.text)
		var stmt string
		switch ctx.Rng.Intn(3) {
		case 0:
			stmt = "pass"
		case 1:
			name := sc.Generate()
			ctx.Reserve(name)
			stmt = fmt.Sprintf("%s = None", name)
		default:
			stmt = fmt.Sprintf("_ = %d", 1+ctx.Rng.Intn(100))
		}
		out = append(out, indent+stmt)
	}
	return joinLines(out), nil
}
