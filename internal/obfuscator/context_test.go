package obfuscator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whit3rabbit/pymixer/internal/config"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
)

func TestContextSeedRecorded(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Silent = true
	cfg.RandomizeSeeds = false
	cfg.Seed = 777
	ctx, err := NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	if ctx.Seed != 777 {
		t.Errorf("Seed = %d, expected 777", ctx.Seed)
	}

	// Randomized runs still record the seed used.
	cfg2 := config.DefaultConfig()
	cfg2.Silent = true
	cfg2.RandomizeSeeds = true
	ctx2, err := NewContext(cfg2)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	if ctx2.Seed == 0 {
		t.Error("randomized context did not record its seed")
	}
}

func TestContextDeterministicRng(t *testing.T) {
	mk := func() *Context {
		cfg := config.DefaultConfig()
		cfg.Silent = true
		cfg.RandomizeSeeds = false
		cfg.Seed = 99
		ctx, err := NewContext(cfg)
		if err != nil {
			t.Fatalf("NewContext failed: %v", err)
		}
		return ctx
	}
	a, b := mk(), mk()
	for i := 0; i < 10; i++ {
		if av, bv := a.Rng.Int63(), b.Rng.Int63(); av != bv {
			t.Fatalf("same-seed contexts diverged at draw %d: %d vs %d", i, av, bv)
		}
	}
}

func TestContextReserve(t *testing.T) {
	ctx := newTestContext(t)
	if ctx.IsReserved("helper") {
		t.Fatal("fresh name reported reserved")
	}
	ctx.Reserve("helper", "other")
	if !ctx.IsReserved("helper") || !ctx.IsReserved("other") {
		t.Error("Reserve did not record names")
	}
	// Excluded patterns are pre-seeded.
	if !ctx.IsReserved("__main__") {
		t.Error("excluded pattern missing from reserved set")
	}
}

func TestContextScramblersInitialized(t *testing.T) {
	ctx := newTestContext(t)
	for _, sType := range scrambler.AllScrambleTypes {
		if ctx.Scrambler(sType) == nil {
			t.Errorf("no scrambler for type %s", sType)
		}
	}
}

func TestContextSaveLoadRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	sc := ctx.Scrambler(scrambler.TypeVariable)
	scrambled := sc.Scramble("total_count")

	baseDir := t.TempDir()
	if err := ctx.Save(baseDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "context", "variable.scramble")); err != nil {
		t.Fatalf("context file missing: %v", err)
	}

	ctx2 := newTestContext(t)
	if err := ctx2.Load(baseDir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := ctx2.Scrambler(scrambler.TypeVariable).Scramble("total_count"); got != scrambled {
		t.Errorf("loaded context produced %q, expected %q", got, scrambled)
	}
}

func TestContextLoadMissingDirIsClean(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.Load(filepath.Join(t.TempDir(), "nothing_here")); err != nil {
		t.Errorf("loading absent context errored: %v", err)
	}
}
