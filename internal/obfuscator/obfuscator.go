package obfuscator

import (
	"fmt"
	"os"

	"github.com/whit3rabbit/pymixer/internal/config"
)

// SelectTechniques returns the technique names a run should apply: the
// explicit techniques list from the config when non-empty, otherwise every
// technique available at the configured default level. Level expansion
// resolves declared conflicts automatically; an explicit list is passed
// through untouched so the conflict checker can reject it.
func SelectTechniques(reg *Registry, cfg *config.Config) []string {
	if len(cfg.Techniques) > 0 {
		out := make([]string, len(cfg.Techniques))
		copy(out, cfg.Techniques)
		return out
	}
	return pruneConflicts(reg, reg.TechniquesForLevel(cfg.DefaultLevel))
}

// pruneConflicts resolves declared conflicts inside a level-expanded set by
// keeping the technique with the higher minimum level, so an aggressive
// variant supersedes the conservative one it conflicts with. A candidate
// that loses against any already kept technique is dropped without
// disturbing the rest of the set.
func pruneConflicts(reg *Registry, names []string) []string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		cand, ok := reg.Lookup(name)
		if !ok {
			kept = append(kept, name)
			continue
		}
		var losers []int
		drop := false
		for i, keptName := range kept {
			other, ok := reg.Lookup(keptName)
			if !ok || !techniquesConflict(cand, other) {
				continue
			}
			if cand.MinLevel > other.MinLevel {
				losers = append(losers, i)
			} else {
				drop = true
				break
			}
		}
		if drop {
			continue
		}
		for j := len(losers) - 1; j >= 0; j-- {
			kept = append(kept[:losers[j]], kept[losers[j]+1:]...)
		}
		kept = append(kept, name)
	}
	return kept
}

// techniquesConflict honors conflicts declared in either direction.
func techniquesConflict(a, b *Technique) bool {
	for _, n := range a.Conflicts {
		if n == b.Name {
			return true
		}
	}
	for _, n := range b.Conflicts {
		if n == a.Name {
			return true
		}
	}
	return false
}

// ObfuscateSource runs the configured techniques against Python source text
// and returns the result. Validation and execution errors come back typed
// (UnknownTechniqueError, CircularDependencyError, ConflictError,
// TechniqueExecutionError) for callers that need to distinguish them.
func ObfuscateSource(src string, reg *Registry, ctx *Context) (string, error) {
	runner := NewRunner(reg)
	return runner.Run(src, SelectTechniques(reg, ctx.Config), ctx)
}

// ProcessFile reads, obfuscates, and returns the content of a single Python
// file. Informational messages are suppressed; only errors are returned.
func ProcessFile(filePath string, reg *Registry, ctx *Context) (string, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	out, err := ObfuscateSource(string(src), reg, ctx)
	if err != nil {
		return "", fmt.Errorf("obfuscation failed for %s: %w", filePath, err)
	}
	return out, nil
}
