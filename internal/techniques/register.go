// Package techniques implements the Python obfuscation technique catalog and
// registers it with the pipeline. Each technique is a textual transform built
// on the span scanner, so string literals and comments survive untouched.
package techniques

import (
	"github.com/whit3rabbit/pymixer/internal/obfuscator"
)

// RegisterAll installs the full technique catalog into reg. Levels run from
// light lexical tweaks (1) to aggressive runtime tricks (4).
func RegisterAll(reg *obfuscator.Registry) {
	// Level 1
	reg.Register(obfuscator.Technique{
		Name:        "string_encoding",
		Description: "encodes simple string literals using the configured encoding",
		Transform:   encodeStrings,
		MinLevel:    1,
		Conflicts:   []string{"advanced_string_obfuscation", "dynamic_string_assembly"},
	})
	reg.Register(obfuscator.Technique{
		Name:         "basic_name_change",
		Description:  "renames functions, classes and variables in one sweep",
		Transform:    basicNameChange,
		MinLevel:     1,
		Dependencies: []string{"dynamic_imports"},
	})
	reg.Register(obfuscator.Technique{
		Name:        "numeric_obfuscation",
		Description: "replaces small integer literals with equivalent expressions",
		Transform:   obfuscateNumbers,
		MinLevel:    1,
	})

	// Level 2
	reg.Register(obfuscator.Technique{
		Name:        "advanced_string_obfuscation",
		Description: "per-literal random choice of string encoding method",
		Transform:   advancedStringObfuscation,
		MinLevel:    2,
		Conflicts:   []string{"string_encoding"},
	})
	reg.Register(obfuscator.Technique{
		Name:         "function_name_obfuscation",
		Description:  "renames function definitions and their call sites",
		Transform:    obfuscateFunctionNames,
		MinLevel:     2,
		Dependencies: []string{"dynamic_imports"},
		Conflicts:    []string{"basic_name_change"},
	})
	reg.Register(obfuscator.Technique{
		Name:         "variable_name_obfuscation",
		Description:  "renames assignment and loop targets",
		Transform:    obfuscateVariableNames,
		MinLevel:     2,
		Dependencies: []string{"dynamic_imports"},
		Conflicts:    []string{"basic_name_change"},
	})
	reg.Register(obfuscator.Technique{
		Name:        "simple_control_flow",
		Description: "inserts dummy conditional branches after safe lines",
		Transform:   addDummyBranches,
		MinLevel:    2,
	})

	// Level 3
	reg.Register(obfuscator.Technique{
		Name:        "dynamic_string_assembly",
		Description: "hoists string literals into generated helper functions",
		Transform:   dynamicStringAssembly,
		MinLevel:    3,
		Conflicts:   []string{"string_encoding", "advanced_string_obfuscation"},
	})
	reg.Register(obfuscator.Technique{
		Name:        "dynamic_imports",
		Description: "rewrites import statements to __import__ calls with encoded names",
		Transform:   dynamicImports,
		MinLevel:    3,
	})
	reg.Register(obfuscator.Technique{
		Name:         "indirect_function_calls",
		Description:  "routes calls to local functions through generated proxies",
		Transform:    indirectFunctionCalls,
		MinLevel:     3,
		Dependencies: []string{"function_name_obfuscation"},
	})
	reg.Register(obfuscator.Technique{
		Name:        "dead_code_insertion",
		Description: "inserts harmless no-op statements at low frequency",
		Transform:   insertDeadCode,
		MinLevel:    3,
	})
	reg.Register(obfuscator.Technique{
		Name:        "opaque_predicates",
		Description: "guards lines with always-true or always-false predicates",
		Transform:   addOpaquePredicates,
		MinLevel:    3,
	})

	// Level 4
	reg.Register(obfuscator.Technique{
		Name:        "runtime_code_generation",
		Description: "aliases compile/exec/eval under generated names",
		Transform:   runtimeCodeGeneration,
		MinLevel:    4,
		Conflicts:   []string{"code_fragmentation"},
	})
	reg.Register(obfuscator.Technique{
		Name:        "anti_debugging",
		Description: "prepends a tracer detection guard",
		Transform:   antiDebugging,
		MinLevel:    4,
	})
	reg.Register(obfuscator.Technique{
		Name:        "code_fragmentation",
		Description: "splits the source into encoded fragments executed in order",
		Transform:   fragmentCode,
		MinLevel:    4,
		Conflicts:   []string{"dynamic_string_assembly"},
	})
}
