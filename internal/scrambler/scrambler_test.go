package scrambler

import (
	"bytes"
	"encoding/gob"
	"fmt"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whit3rabbit/pymixer/internal/config"
)

// Helper to create a default config for testing
func createTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ScrambleLength = 6
	cfg.ExcludedPatterns = []string{"__main__", "keep_me"}
	return cfg
}

// Helper to create a scrambler with a specific config and a fixed seed
func createTestScrambler(t *testing.T, sType ScrambleType, cfg *config.Config) *Scrambler {
	t.Helper()
	if cfg == nil {
		cfg = createTestConfig()
	}
	rng := mathrand.New(mathrand.NewSource(42))
	sc, err := NewScrambler(sType, cfg, rng)
	if err != nil {
		t.Fatalf("Failed to create scrambler for type %s: %v", sType, err)
	}
	return sc
}

// Test basic scrambling and consistency
func TestScrambleBasic(t *testing.T) {
	cfg := createTestConfig()
	scVar := createTestScrambler(t, TypeVariable, cfg)
	scFunc := createTestScrambler(t, TypeFunction, cfg)

	originalVar := "my_variable"
	scrambledVar1 := scVar.Scramble(originalVar)
	scrambledVar2 := scVar.Scramble(originalVar) // Should be consistent

	if scrambledVar1 == originalVar {
		t.Errorf("Variable '%s' was not scrambled", originalVar)
	}
	if len(scrambledVar1) < cfg.ScrambleLength {
		t.Errorf("Scrambled variable '%s' is too short: len=%d, expected >= %d", scrambledVar1, len(scrambledVar1), cfg.ScrambleLength)
	}
	if scrambledVar1 != scrambledVar2 {
		t.Errorf("Scrambled variable is not consistent: '%s' != '%s'", scrambledVar1, scrambledVar2)
	}

	originalFunc := "process_data"
	scrambledFunc1 := scFunc.Scramble(originalFunc)
	scrambledFunc2 := scFunc.Scramble(originalFunc)

	if scrambledFunc1 == originalFunc {
		t.Errorf("Function '%s' was not scrambled", originalFunc)
	}
	if scrambledFunc1 != scrambledFunc2 {
		t.Errorf("Scrambled function is not consistent: '%s' != '%s'", scrambledFunc1, scrambledFunc2)
	}
}

// Two scramblers built with the same seed must produce the same names.
func TestScrambleDeterministic(t *testing.T) {
	cfg := createTestConfig()
	names := []string{"alpha", "beta", "gamma", "delta"}

	a := createTestScrambler(t, TypeVariable, cfg)
	b := createTestScrambler(t, TypeVariable, cfg)

	for _, n := range names {
		if got, want := b.Scramble(n), a.Scramble(n); got != want {
			t.Errorf("Same-seed scramblers diverged for '%s': '%s' vs '%s'", n, want, got)
		}
	}
}

// Python identifiers are case-sensitive; distinct casings get distinct names.
func TestScrambleCaseSensitivity(t *testing.T) {
	cfg := createTestConfig()
	scVar := createTestScrambler(t, TypeVariable, cfg)

	scrambled1 := scVar.Scramble("myVar")
	scrambled2 := scVar.Scramble("MyVar")

	if scrambled1 == scrambled2 {
		t.Errorf("Scrambler produced same result for 'myVar' and 'MyVar': '%s'", scrambled1)
	}
}

// Test excluded pattern handling (substring match)
func TestScrambleExcludedPatterns(t *testing.T) {
	cfg := createTestConfig()
	scVar := createTestScrambler(t, TypeVariable, cfg)

	for _, name := range []string{"keep_me", "please_keep_me_now", "KEEP_ME"} {
		if got := scVar.Scramble(name); got != name {
			t.Errorf("Name '%s' matches an excluded pattern but was scrambled to '%s'", name, got)
		}
	}

	if got := scVar.Scramble("unrelated"); got == "unrelated" {
		t.Errorf("Name 'unrelated' should have been scrambled")
	}
}

// Test reserved names
func TestScrambleReserved(t *testing.T) {
	cfg := createTestConfig()
	scVar := createTestScrambler(t, TypeVariable, cfg)
	scFunc := createTestScrambler(t, TypeFunction, cfg)

	cases := []struct {
		sc   *Scrambler
		name string
	}{
		{scVar, "lambda"},      // keyword
		{scVar, "print"},       // builtin
		{scVar, "__init__"},    // dunder
		{scVar, "items"},       // builtin method name
		{scFunc, "isinstance"}, // builtin
		{scFunc, "yield"},      // keyword
	}
	for _, tc := range cases {
		if got := tc.sc.Scramble(tc.name); got != tc.name {
			t.Errorf("Reserved name '%s' was scrambled to '%s'", tc.name, got)
		}
	}

	// Reserved check is case-sensitive: 'Print' is a legal user name.
	if got := scVar.Scramble("Print"); got == "Print" {
		t.Errorf("Non-reserved name 'Print' should have been scrambled")
	}
}

// Test Unscramble
func TestUnscramble(t *testing.T) {
	cfg := createTestConfig()
	scVar := createTestScrambler(t, TypeVariable, cfg)

	original := "original_name"
	scrambled := scVar.Scramble(original)

	if scrambled == original {
		t.Fatalf("Scrambling failed for '%s'", original)
	}

	unscrambled, found := scVar.Unscramble(scrambled)
	if !found {
		t.Errorf("Unscramble failed to find original name for scrambled '%s'", scrambled)
	}
	if unscrambled != original {
		t.Errorf("Unscramble returned wrong original name: expected '%s', got '%s'", original, unscrambled)
	}

	obfuscated, found := scVar.LookupObfuscated(original)
	if !found || obfuscated != scrambled {
		t.Errorf("LookupObfuscated returned ('%s', %t), expected ('%s', true)", obfuscated, found, scrambled)
	}

	// Unknown name
	if _, found = scVar.Unscramble("no_such_scrambled_name"); found {
		t.Errorf("Unscramble incorrectly found an original for an unknown name")
	}

	// Ignored name never enters the maps
	ignored := "keep_me"
	if got := scVar.Scramble(ignored); got != ignored {
		t.Fatalf("Test setup failed: excluded variable was scrambled")
	}
	if _, found = scVar.Unscramble(ignored); found {
		t.Errorf("Unscramble incorrectly found an original name for ignored '%s'", ignored)
	}
}

// Test the hex and numeric name patterns
func TestScramblePatterns(t *testing.T) {
	cfgHex := createTestConfig()
	cfgHex.CustomEncodings.NamePattern = config.NamePatternHex
	scHex := createTestScrambler(t, TypeVariable, cfgHex)
	hexName := scHex.Scramble("counter")
	if !strings.HasPrefix(hexName, "_0x") {
		t.Errorf("Hex pattern produced '%s', expected '_0x' prefix", hexName)
	}

	cfgNum := createTestConfig()
	cfgNum.CustomEncodings.NamePattern = config.NamePatternNumeric
	scNum := createTestScrambler(t, TypeVariable, cfgNum)
	n1 := scNum.Scramble("first")
	n2 := scNum.Scramble("second")
	if !strings.HasPrefix(n1, "_v") || !strings.HasPrefix(n2, "_v") {
		t.Errorf("Numeric pattern produced '%s', '%s', expected '_v' prefix", n1, n2)
	}
	if n1 == n2 {
		t.Errorf("Numeric pattern produced identical names for distinct originals: %s", n1)
	}
}

// Test fresh name generation for introduced identifiers
func TestGenerate(t *testing.T) {
	cfg := createTestConfig()
	sc := createTestScrambler(t, TypeAlias, cfg)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := sc.Generate()
		if name == "" {
			t.Fatal("Generate returned an empty name")
		}
		if isReserved(name, TypeAlias) {
			t.Errorf("Generate produced a reserved name: %s", name)
		}
		if seen[name] {
			t.Errorf("Generate produced a duplicate name: %s", name)
		}
		seen[name] = true
	}

	// Generated names occupy the reverse map, so Scramble cannot reuse them.
	scrambled := sc.Scramble("something")
	if seen[scrambled] {
		t.Errorf("Scramble reused a generated name: %s", scrambled)
	}
}

// Test collision handling under a deliberately short length
func TestScrambleCollision(t *testing.T) {
	cfg := createTestConfig()
	cfg.ScrambleLength = 4 // clamps to minimum, raising collision odds
	sc := createTestScrambler(t, TypeVariable, cfg)

	generated := make(map[string]string) // scrambled -> original
	count := 1000

	for i := 0; i < count; i++ {
		original := fmt.Sprintf("var_%d", i)
		scrambled := sc.Scramble(original)
		if original == scrambled {
			t.Logf("Variable '%s' was not scrambled (max attempts reached)", original)
			continue
		}
		if existing, exists := generated[scrambled]; exists {
			t.Errorf("Collision detected: '%s' generated for both '%s' and '%s'", scrambled, existing, original)
		} else {
			generated[scrambled] = original
		}

		unscrambled, found := sc.Unscramble(scrambled)
		if !found || unscrambled != original {
			t.Errorf("Unscramble failed for '%s' (expected '%s', got '%s')", scrambled, original, unscrambled)
		}
	}
}

// Test Context Save and Load
func TestContextPersistence(t *testing.T) {
	cfg := createTestConfig()
	sc1 := createTestScrambler(t, TypeVariable, cfg)

	orig1, orig2 := "var_one", "var_two"
	scrambled1 := sc1.Scramble(orig1)
	scrambled2 := sc1.Scramble(orig2)

	tempDir := t.TempDir()
	contextFile := filepath.Join(tempDir, "variable_test.scramble")

	if err := sc1.SaveState(contextFile); err != nil {
		t.Fatalf("Failed to save scrambler state: %v", err)
	}

	sc2 := createTestScrambler(t, TypeVariable, cfg)
	if err := sc2.LoadState(contextFile); err != nil {
		t.Fatalf("Failed to load scrambler state: %v", err)
	}

	if sc2.currentLength != sc1.currentLength {
		t.Errorf("Loaded context has wrong currentLength: expected %d, got %d", sc1.currentLength, sc2.currentLength)
	}

	// Loaded mappings must survive re-scrambling.
	if got := sc2.Scramble(orig1); got != scrambled1 {
		t.Errorf("Loaded context failed for '%s': expected '%s', got '%s'", orig1, scrambled1, got)
	}
	if got := sc2.Scramble(orig2); got != scrambled2 {
		t.Errorf("Loaded context failed for '%s': expected '%s', got '%s'", orig2, scrambled2, got)
	}

	// New names still scramble and avoid loaded entries.
	orig3 := "var_three"
	scrambled3 := sc2.Scramble(orig3)
	if scrambled3 == orig3 {
		t.Errorf("Scrambling new name failed after loading context for '%s'", orig3)
	}
	if scrambled3 == scrambled1 || scrambled3 == scrambled2 {
		t.Errorf("Collision after loading context: '%s' matches an existing name", scrambled3)
	}

	// Missing file is not an error.
	sc3 := createTestScrambler(t, TypeVariable, cfg)
	if err := sc3.LoadState(filepath.Join(tempDir, "non_existent.scramble")); err != nil {
		t.Fatalf("Loading non-existent state file errored unexpectedly: %v", err)
	}

	// Incompatible version must error.
	badState := scramblerState{Version: "invalid-version"}
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(badState); err != nil {
		t.Fatalf("Failed to encode bad state for testing: %v", err)
	}
	badFile := filepath.Join(tempDir, "bad_version.scramble")
	if err := os.WriteFile(badFile, buffer.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write bad state file for testing: %v", err)
	}
	sc4 := createTestScrambler(t, TypeVariable, cfg)
	err := sc4.LoadState(badFile)
	if err == nil {
		t.Errorf("Loading state with incompatible version should have errored, but didn't")
	} else if !strings.Contains(err.Error(), "incompatible context version") {
		t.Errorf("Loading incompatible version gave wrong error type: %v", err)
	}
}

func TestParseScrambleType(t *testing.T) {
	got, err := ParseScrambleType("Variable")
	if err != nil || got != TypeVariable {
		t.Errorf("ParseScrambleType(\"Variable\") = (%v, %v), expected (variable, nil)", got, err)
	}
	if _, err := ParseScrambleType("widget"); err == nil {
		t.Errorf("ParseScrambleType(\"widget\") should have errored")
	}
}
