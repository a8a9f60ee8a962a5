package obfuscator

import (
	"reflect"
	"strings"
	"testing"
)

func noopTransform(src string, ctx *Context) (string, error) {
	return src, nil
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Technique{Name: "alpha", Transform: noopTransform, MinLevel: 1})

	got, ok := reg.Lookup("alpha")
	if !ok || got.Name != "alpha" {
		t.Fatalf("Lookup failed: %+v, %v", got, ok)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup found an unregistered technique")
	}
}

func TestRegisterOverwrites(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Technique{Name: "alpha", Transform: noopTransform, MinLevel: 1})
	reg.Register(Technique{Name: "beta", Transform: noopTransform, MinLevel: 1})
	reg.Register(Technique{Name: "alpha", Transform: noopTransform, MinLevel: 3})

	got, _ := reg.Lookup("alpha")
	if got.MinLevel != 3 {
		t.Errorf("re-registration did not overwrite: MinLevel=%d", got.MinLevel)
	}
	// Registration order keeps the original position.
	if names := reg.Names(); !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Errorf("Names() = %v", names)
	}
}

func TestRegisterPanicsOnDepConflictOverlap(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for overlapping dependency and conflict")
		}
	}()
	reg := NewRegistry()
	reg.Register(Technique{
		Name:         "broken",
		Transform:    noopTransform,
		MinLevel:     1,
		Dependencies: []string{"other"},
		Conflicts:    []string{"other"},
	})
}

func TestRegisterPanicsOnInvalidLevel(t *testing.T) {
	for _, level := range []int{0, 5, -1} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for level %d", level)
				}
			}()
			reg := NewRegistry()
			reg.Register(Technique{Name: "x", Transform: noopTransform, MinLevel: level})
		}()
	}
}

func TestTechniquesForLevelMonotonic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Technique{Name: "l1", Transform: noopTransform, MinLevel: 1})
	reg.Register(Technique{Name: "l2", Transform: noopTransform, MinLevel: 2})
	reg.Register(Technique{Name: "l3", Transform: noopTransform, MinLevel: 3})
	reg.Register(Technique{Name: "l4", Transform: noopTransform, MinLevel: 4})

	prev := map[string]bool{}
	for level := MinLevel; level <= MaxLevel; level++ {
		names := reg.TechniquesForLevel(level)
		got := map[string]bool{}
		for _, n := range names {
			got[n] = true
		}
		for n := range prev {
			if !got[n] {
				t.Errorf("level %d lost technique %q available at level %d", level, n, level-1)
			}
		}
		if len(names) != level {
			t.Errorf("level %d has %d techniques, expected %d", level, len(names), level)
		}
		prev = got
	}
}

func TestDescribe(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Technique{
		Name:         "renamer",
		Description:  "renames things",
		Transform:    noopTransform,
		MinLevel:     2,
		Dependencies: []string{"setup"},
		Conflicts:    []string{"other_renamer"},
	})

	desc, err := reg.Describe("renamer")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	for _, want := range []string{"renamer", "level 2", "setup", "other_renamer"} {
		if !strings.Contains(desc, want) {
			t.Errorf("description %q missing %q", desc, want)
		}
	}

	if _, err := reg.Describe("missing"); err == nil {
		t.Error("Describe of unknown technique should error")
	}
}
