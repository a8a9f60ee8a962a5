package obfuscator

import (
	"fmt"
	"sort"
)

// Obfuscation levels run 1 (light) through 4 (aggressive). A technique
// registered at level n is available at every level >= n.
const (
	MinLevel = 1
	MaxLevel = 4
)

// TransformFunc rewrites source text. It must treat the input as immutable
// and return the full replacement text, or an error to signal failure.
type TransformFunc func(src string, ctx *Context) (string, error)

// Technique describes one registered transformation.
type Technique struct {
	Name         string
	Description  string
	Transform    TransformFunc
	MinLevel     int
	Dependencies []string // must run before this technique when also requested
	Conflicts    []string // mutually exclusive with this technique
}

// Registry holds the available techniques. It is populated at startup and
// read-only while a run is in progress.
type Registry struct {
	techniques map[string]*Technique
	order      []string // registration order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{techniques: make(map[string]*Technique)}
}

// Register adds a technique. Registering a name twice overwrites the previous
// entry but keeps its position in the ordering. A technique whose dependency
// set intersects its conflict set is a programming error and panics.
func (r *Registry) Register(t Technique) {
	if t.Name == "" {
		panic("obfuscator: technique registered without a name")
	}
	if t.Transform == nil {
		panic(fmt.Sprintf("obfuscator: technique %q registered without a transform", t.Name))
	}
	if t.MinLevel < MinLevel || t.MinLevel > MaxLevel {
		panic(fmt.Sprintf("obfuscator: technique %q has invalid min level %d", t.Name, t.MinLevel))
	}
	for _, dep := range t.Dependencies {
		for _, c := range t.Conflicts {
			if dep == c {
				panic(fmt.Sprintf("obfuscator: technique %q declares %q as both dependency and conflict", t.Name, dep))
			}
		}
	}
	if _, exists := r.techniques[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	cp := t
	r.techniques[t.Name] = &cp
}

// Lookup returns the technique registered under name.
func (r *Registry) Lookup(name string) (*Technique, bool) {
	t, ok := r.techniques[name]
	return t, ok
}

// Names returns all registered technique names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// TechniquesForLevel returns the names available at the given level, in
// registration order. Higher levels are supersets of lower levels.
func (r *Registry) TechniquesForLevel(level int) []string {
	var out []string
	for _, name := range r.order {
		if r.techniques[name].MinLevel <= level {
			out = append(out, name)
		}
	}
	return out
}

// Describe returns a human-readable summary of one technique for the CLI.
func (r *Registry) Describe(name string) (string, error) {
	t, ok := r.techniques[name]
	if !ok {
		return "", &UnknownTechniqueError{Name: name}
	}
	deps := "none"
	if len(t.Dependencies) > 0 {
		deps = join(t.Dependencies)
	}
	conflicts := "none"
	if len(t.Conflicts) > 0 {
		conflicts = join(t.Conflicts)
	}
	return fmt.Sprintf("%s (level %d+)\n  %s\n  dependencies: %s\n  conflicts: %s",
		t.Name, t.MinLevel, t.Description, deps, conflicts), nil
}

func join(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	out := ""
	for i, n := range sorted {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
