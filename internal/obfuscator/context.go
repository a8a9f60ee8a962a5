// Package obfuscator orchestrates the overall process and holds shared context.
package obfuscator

import (
	"fmt"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/whit3rabbit/pymixer/internal/config"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

// Context carries the shared state of one obfuscation run: the configuration,
// the run's seeded RNG, the name scramblers, and the mappings the techniques
// build up. A Context is created fresh per run and must not be shared by
// concurrent runs. Reusing one across sequential runs (directory mode) keeps
// renamings consistent across files.
type Context struct {
	Config *config.Config
	Rng    *mathrand.Rand
	Seed   int64
	Silent bool

	Scramblers map[scrambler.ScrambleType]*scrambler.Scrambler

	// Mappings recorded by the techniques, original -> replacement.
	VariableMapping map[string]string
	FunctionMapping map[string]string
	StringMapping   map[string]string
	AliasMapping    map[string]string

	// Names no technique may rename or shadow. Techniques add to this set
	// as they introduce or discover protected names.
	ReservedNames map[string]bool

	applied      map[string]bool
	appliedOrder []string
}

// NewContext creates a run context from cfg. The RNG seed comes from
// cfg.Seed unless randomize_seeds is set, in which case a fresh seed is
// drawn and recorded on the context so the run can be reproduced.
func NewContext(cfg *config.Config) (*Context, error) {
	seed := cfg.Seed
	if cfg.RandomizeSeeds || seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx := &Context{
		Config:          cfg,
		Rng:             mathrand.New(mathrand.NewSource(seed)),
		Seed:            seed,
		Silent:          cfg.Silent,
		Scramblers:      make(map[scrambler.ScrambleType]*scrambler.Scrambler),
		VariableMapping: make(map[string]string),
		FunctionMapping: make(map[string]string),
		StringMapping:   make(map[string]string),
		AliasMapping:    make(map[string]string),
		ReservedNames:   make(map[string]bool),
		applied:         make(map[string]bool),
	}

	for _, sType := range scrambler.AllScrambleTypes {
		s, err := scrambler.NewScrambler(sType, cfg, ctx.Rng)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize scrambler for type %s: %w", sType, err)
		}
		ctx.Scramblers[sType] = s
	}

	for _, p := range cfg.ExcludedPatterns {
		ctx.ReservedNames[p] = true
	}

	return ctx, nil
}

// Scrambler returns the scrambler for the given identifier type.
func (ctx *Context) Scrambler(sType scrambler.ScrambleType) *scrambler.Scrambler {
	return ctx.Scramblers[sType]
}

// Reserve marks names as off-limits for renaming.
func (ctx *Context) Reserve(names ...string) {
	for _, n := range names {
		ctx.ReservedNames[n] = true
	}
}

// IsReserved reports whether a name must not be renamed.
func (ctx *Context) IsReserved(name string) bool {
	return ctx.ReservedNames[name]
}

// MarkApplied records that a technique completed successfully.
func (ctx *Context) MarkApplied(name string) {
	if !ctx.applied[name] {
		ctx.applied[name] = true
		ctx.appliedOrder = append(ctx.appliedOrder, name)
	}
}

// Applied reports whether a technique completed successfully in this run.
func (ctx *Context) Applied(name string) bool {
	return ctx.applied[name]
}

// AppliedTechniques returns the successfully applied techniques in the order
// they ran. Callers use this to tell a partial lenient-mode result from a
// complete one.
func (ctx *Context) AppliedTechniques() []string {
	out := make([]string, len(ctx.appliedOrder))
	copy(out, ctx.appliedOrder)
	return out
}

// ContextFilePath returns the expected path for a scrambler's context file.
func (ctx *Context) ContextFilePath(baseDir string, sType scrambler.ScrambleType) string {
	return filepath.Join(baseDir, "context", string(sType)+".scramble")
}

// Load loads the state for all scramblers from the specified base directory.
// Missing files are skipped; an unreadable or incompatible file is reported
// and that scrambler starts fresh, with the first such error returned.
func (ctx *Context) Load(baseDir string) error {
	if !ctx.Silent {
		config.PrintInfo("Info: Attempting to load obfuscation context...\n")
	}
	loadedAny := false
	var firstLoadError error

	for sType, s := range ctx.Scramblers {
		filePath := ctx.ContextFilePath(baseDir, sType)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			continue
		}
		if err := s.LoadState(filePath); err != nil {
			loadErr := fmt.Errorf("failed to load context for %s from %s: %w", sType, filePath, err)
			fmt.Fprintf(os.Stderr, "Warning: %v. Starting fresh for this type.\n", loadErr)
			if firstLoadError == nil {
				firstLoadError = loadErr
			}
		} else {
			if !ctx.Silent {
				config.PrintInfo("Info: Loaded context for type %s from %s\n", sType, filePath)
			}
			loadedAny = true
		}
	}

	if firstLoadError != nil {
		return fmt.Errorf("context loading finished with errors: %w", firstLoadError)
	}
	if loadedAny && !ctx.Silent {
		config.PrintInfo("Info: Finished loading existing obfuscation context.\n")
	} else if !ctx.Silent {
		config.PrintInfo("Info: No existing context found or loaded.\n")
	}
	return nil
}

// Save saves the state for all scramblers to the specified base directory.
func (ctx *Context) Save(baseDir string) error {
	if !ctx.Silent {
		config.PrintInfo("Info: Saving obfuscation context...\n")
	}
	contextDir := filepath.Join(baseDir, "context")
	if err := os.MkdirAll(contextDir, 0755); err != nil {
		return fmt.Errorf("failed to ensure context directory %s exists: %w", contextDir, err)
	}

	for sType, s := range ctx.Scramblers {
		filePath := ctx.ContextFilePath(baseDir, sType)
		if err := s.SaveState(filePath); err != nil {
			return fmt.Errorf("failed to save context for %s to %s: %w", sType, filePath, err)
		}
	}
	if !ctx.Silent {
		config.PrintInfo("Info: Obfuscation context saved successfully.\n")
	}
	return nil
}
