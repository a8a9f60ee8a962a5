package obfuscator

import (
	"fmt"
	"strings"
)

// UnknownTechniqueError reports a requested technique name that is not in the
// registry. Fatal in both lenient and strict mode.
type UnknownTechniqueError struct {
	Name string
}

func (e *UnknownTechniqueError) Error() string {
	return fmt.Sprintf("unknown technique: %q", e.Name)
}

// CircularDependencyError reports a dependency cycle discovered during
// resolution. Name is a technique on the cycle.
type CircularDependencyError struct {
	Name string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected involving technique %q", e.Name)
}

// ConflictPair names two mutually exclusive techniques that were requested
// together.
type ConflictPair struct {
	First  string
	Second string
}

func (p ConflictPair) String() string {
	return p.First + " <-> " + p.Second
}

// ConflictError blocks a run whose requested set contains incompatible
// techniques. All offending pairs are listed.
type ConflictError struct {
	Pairs []ConflictPair
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p.String()
	}
	return fmt.Sprintf("conflicting techniques requested: %s", strings.Join(parts, ", "))
}

// TechniqueExecutionError wraps a failure inside a technique's transform.
// In strict mode it aborts the whole run.
type TechniqueExecutionError struct {
	Name  string
	Cause error
}

func (e *TechniqueExecutionError) Error() string {
	return fmt.Sprintf("technique %q failed: %v", e.Name, e.Cause)
}

func (e *TechniqueExecutionError) Unwrap() error {
	return e.Cause
}
