package obfuscator

import (
	"fmt"
	"os"

	"github.com/whit3rabbit/pymixer/internal/config"
)

// RunState tracks where a Runner is in its lifecycle. The runner moves
// Idle -> Validating -> Running -> Done, or to Aborted when validation or a
// strict-mode technique failure stops the run.
type RunState int

const (
	StateIdle RunState = iota
	StateValidating
	StateRunning
	StateDone
	StateAborted
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Runner executes a set of techniques against source text. A Runner is not
// safe for concurrent use; create one per run or guard it externally.
type Runner struct {
	registry *Registry
	state    RunState
}

// NewRunner returns a runner over the given registry.
func NewRunner(reg *Registry) *Runner {
	return &Runner{registry: reg, state: StateIdle}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() RunState { return r.state }

// Run validates the requested techniques, orders them by dependency, and
// applies them in sequence to src.
//
// Validation failures (unknown name, cycle, conflict) abort before any
// transform touches the text. A transform failure is handled per mode: in
// strict mode the run aborts with a TechniqueExecutionError and the text is
// discarded by convention; in lenient mode the failing technique's output is
// dropped, a warning goes to stderr, and the run continues with the
// pre-failure text. Successfully applied techniques are recorded on ctx.
func (r *Runner) Run(src string, requested []string, ctx *Context) (string, error) {
	r.state = StateValidating

	resolved, err := r.registry.Resolve(requested)
	if err != nil {
		r.state = StateAborted
		return src, err
	}
	if pairs := r.registry.CheckConflicts(resolved); len(pairs) > 0 {
		r.state = StateAborted
		return src, &ConflictError{Pairs: pairs}
	}

	r.state = StateRunning
	strict := ctx.Config.StrictMode
	current := src
	for _, name := range resolved {
		t, _ := r.registry.Lookup(name)
		if ctx.Config.DebugMode && !ctx.Silent {
			config.PrintInfo("Debug: applying technique %s\n", name)
		}
		out, err := t.Transform(current, ctx)
		if err != nil {
			execErr := &TechniqueExecutionError{Name: name, Cause: err}
			if strict {
				r.state = StateAborted
				return current, execErr
			}
			fmt.Fprintf(os.Stderr, "Warning: %v (skipping technique)\n", execErr)
			continue
		}
		current = out
		ctx.MarkApplied(name)
	}

	r.state = StateDone
	return current, nil
}

// RunLevel runs every technique available at the given level.
func (r *Runner) RunLevel(src string, level int, ctx *Context) (string, error) {
	if level < MinLevel || level > MaxLevel {
		r.state = StateAborted
		return src, fmt.Errorf("invalid obfuscation level: %d (valid %d..%d)", level, MinLevel, MaxLevel)
	}
	return r.Run(src, pruneConflicts(r.registry, r.registry.TechniquesForLevel(level)), ctx)
}
