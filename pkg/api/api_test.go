package api

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whit3rabbit/pymixer/internal/config"
)

func TestNewObfuscator(t *testing.T) {
	// Test with default empty options - this should use default config
	obf, err := NewObfuscator(Options{})
	if err != nil {
		t.Errorf("Expected default config to be used, got error: %v", err)
	}
	if obf == nil {
		t.Errorf("Expected non-nil Obfuscator with default config, got nil")
	}

	// Create a temporary config file
	configContent := `
# Test configuration
silent: true
scramble_length: 5
default_level: 1
custom_encodings:
  name_pattern: "hex"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	// Test with valid config
	obf, err = NewObfuscator(Options{
		ConfigPath: configPath,
		Silent:     true,
	})
	if err != nil {
		t.Fatalf("NewObfuscator with valid config failed: %v", err)
	}
	if obf.Config == nil {
		t.Fatalf("Expected non-nil Config in Obfuscator, got nil")
	}
	if obf.Context == nil {
		t.Errorf("Expected non-nil Context in Obfuscator, got nil")
	}
	if obf.Registry == nil {
		t.Errorf("Expected non-nil Registry in Obfuscator, got nil")
	}
	if obf.Config.ScrambleLength != 5 {
		t.Errorf("Expected scramble_length 5 from config, got %d", obf.Config.ScrambleLength)
	}
	if obf.Config.DefaultLevel != 1 {
		t.Errorf("Expected default_level 1 from config, got %d", obf.Config.DefaultLevel)
	}
}

func TestNewObfuscatorOptionOverrides(t *testing.T) {
	obf, err := NewObfuscator(Options{
		Silent:     true,
		Level:      3,
		Seed:       777,
		StrictMode: true,
	})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}
	if obf.Config.DefaultLevel != 3 {
		t.Errorf("Level override not applied: %d", obf.Config.DefaultLevel)
	}
	if obf.Config.Seed != 777 || obf.Config.RandomizeSeeds {
		t.Errorf("Seed override not applied: seed=%d randomize=%v", obf.Config.Seed, obf.Config.RandomizeSeeds)
	}
	if !obf.Config.StrictMode {
		t.Errorf("StrictMode override not applied")
	}
}

func TestObfuscateCode(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	obf, err := NewObfuscator(Options{Silent: true, Seed: 1234})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}

	pyCode := `# helper module
def greet(who):
    message = 'Hello, ' + who
    return message

name = 'World'
print(greet(name))
`

	result, err := obf.ObfuscateCode(pyCode)
	if err != nil {
		t.Fatalf("ObfuscateCode failed: %v", err)
	}
	if result == "" {
		t.Errorf("ObfuscateCode returned empty string")
	}
	if result == pyCode {
		t.Errorf("Expected code to be modified, but it's identical to the input")
	}
	if strings.Contains(result, "def greet(") {
		t.Errorf("Expected function name to be obfuscated, but 'greet' survived")
	}
	if len(obf.AppliedTechniques()) == 0 {
		t.Errorf("Expected applied techniques to be recorded")
	}
}

func TestObfuscateCodeDeterministic(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	pyCode := "value = 'payload'\ncount = 3\n"

	run := func() string {
		obf, err := NewObfuscator(Options{Silent: true, Seed: 42})
		if err != nil {
			t.Fatalf("NewObfuscator failed: %v", err)
		}
		out, err := obf.ObfuscateCode(pyCode)
		if err != nil {
			t.Fatalf("ObfuscateCode failed: %v", err)
		}
		return out
	}

	if first, second := run(), run(); first != second {
		t.Errorf("Same seed produced different output:\n%q\n%q", first, second)
	}
}

func TestObfuscateFileToFile(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	obf, err := NewObfuscator(Options{Silent: true, Seed: 1234})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}

	pyCode := `def compute(value):
    result = value * 2
    return result

total = compute(21)
`
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "input.py")
	if err := os.WriteFile(inputPath, []byte(pyCode), 0644); err != nil {
		t.Fatalf("Failed to write test Python file: %v", err)
	}

	outputPath := filepath.Join(tmpDir, "out", "output.py")
	if err := obf.ObfuscateFileToFile(inputPath, outputPath); err != nil {
		t.Fatalf("ObfuscateFileToFile failed: %v", err)
	}

	obfuscatedCode, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if len(obfuscatedCode) == 0 {
		t.Errorf("Obfuscated code file is empty")
	}
	if string(obfuscatedCode) == pyCode {
		t.Errorf("Expected code to be modified, but it's identical to the input")
	}
}

// Helper function to create a test directory structure with Python files
func createTestDirStructure(t *testing.T, baseDir string) {
	dirs := []string{
		filepath.Join(baseDir, "subdir1"),
		filepath.Join(baseDir, "subdir2"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create test directory %s: %v", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(baseDir, "root.py"):      "root_value = 'root'\n",
		filepath.Join(baseDir, "subdir1/a.py"): "a_value = 'file a'\n",
		filepath.Join(baseDir, "subdir2/b.py"): "b_value = 'file b'\n",
		filepath.Join(baseDir, "subdir2/c.txt"): "This is a non-Python file that should be copied.",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write test file %s: %v", path, err)
		}
	}
}

func TestObfuscateDirectory(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	obf, err := NewObfuscator(Options{Silent: true, Seed: 1234})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}
	obf.Config.SkipPaths = []string{"*.skip"}

	tmpDir := t.TempDir()
	inputDir := filepath.Join(tmpDir, "input")
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		t.Fatalf("Failed to create input directory: %v", err)
	}
	createTestDirStructure(t, inputDir)

	skipFile := filepath.Join(inputDir, "skip_me.skip")
	if err := os.WriteFile(skipFile, []byte("This file should be skipped"), 0644); err != nil {
		t.Fatalf("Failed to write skip file: %v", err)
	}

	outputDir := filepath.Join(tmpDir, "output")
	if err := obf.ObfuscateDirectory(inputDir, outputDir); err != nil {
		t.Fatalf("ObfuscateDirectory failed: %v", err)
	}

	pyFiles := map[string]string{
		filepath.Join(outputDir, "root.py"):           "root_value",
		filepath.Join(outputDir, "subdir1", "a.py"):   "a_value",
		filepath.Join(outputDir, "subdir2", "b.py"):   "b_value",
	}
	for pyFile, original := range pyFiles {
		content, err := os.ReadFile(pyFile)
		if err != nil {
			t.Errorf("Failed to read output file %s: %v", pyFile, err)
			continue
		}
		if strings.Contains(string(content), original+" =") {
			t.Errorf("Expected %s to be obfuscated in %s", original, pyFile)
		}
	}

	// Non-Python file is copied as-is
	nonPyFile := filepath.Join(outputDir, "subdir2", "c.txt")
	if _, err := os.Stat(nonPyFile); os.IsNotExist(err) {
		t.Errorf("Expected non-Python file %s was not copied", nonPyFile)
	}

	// Skipped file must not appear in the output
	skipFileOutput := filepath.Join(outputDir, "skip_me.skip")
	if _, err := os.Stat(skipFileOutput); !os.IsNotExist(err) {
		t.Errorf("Skipped file %s should not have been copied", skipFileOutput)
	}

	// The obfuscation context is persisted for follow-up runs
	contextFile := filepath.Join(outputDir, "context", "variable.scramble")
	if _, err := os.Stat(contextFile); os.IsNotExist(err) {
		t.Errorf("Expected persisted context file %s", contextFile)
	}
}

func TestObfuscateDirectoryKeepPaths(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	obf, err := NewObfuscator(Options{Silent: true, Seed: 1234})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}
	obf.Config.KeepPaths = []string{"setup.py"}

	tmpDir := t.TempDir()
	inputDir := filepath.Join(tmpDir, "input")
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		t.Fatalf("Failed to create input directory: %v", err)
	}
	setupContent := "from setuptools import setup\nsetup(name='demo')\n"
	if err := os.WriteFile(filepath.Join(inputDir, "setup.py"), []byte(setupContent), 0644); err != nil {
		t.Fatalf("Failed to write setup.py: %v", err)
	}

	outputDir := filepath.Join(tmpDir, "output")
	if err := obf.ObfuscateDirectory(inputDir, outputDir); err != nil {
		t.Fatalf("ObfuscateDirectory failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "setup.py"))
	if err != nil {
		t.Fatalf("Failed to read kept file: %v", err)
	}
	if string(content) != setupContent {
		t.Errorf("Keep path was obfuscated: %q", string(content))
	}
}

func TestLookupObfuscatedName(t *testing.T) {
	originalTestingFlag := config.Testing
	config.Testing = true
	defer func() { config.Testing = originalTestingFlag }()

	obf, err := NewObfuscator(Options{
		Silent:     true,
		Seed:       1234,
		Techniques: []string{"function_name_obfuscation", "variable_name_obfuscation"},
	})
	if err != nil {
		t.Fatalf("NewObfuscator failed: %v", err)
	}

	pyCode := `def test_function(arg):
    return arg

my_var = 'hello'
test_function(my_var)
`
	result, err := obf.ObfuscateCode(pyCode)
	if err != nil {
		t.Fatalf("ObfuscateCode failed: %v", err)
	}

	// Invalid type
	if _, err := obf.LookupObfuscatedName("test_function", "invalid_type"); err == nil {
		t.Errorf("Expected error for invalid type, got nil")
	}

	funcName, err := obf.LookupObfuscatedName("test_function", "function")
	if err != nil {
		t.Fatalf("LookupObfuscatedName for function failed: %v", err)
	}
	if funcName == "test_function" {
		t.Errorf("Expected obfuscated name to be different from original, got same name")
	}
	if !strings.Contains(result, funcName) {
		t.Errorf("Obfuscated name %s not found in obfuscated output", funcName)
	}

	varName, err := obf.LookupObfuscatedName("my_var", "variable")
	if err != nil {
		t.Fatalf("LookupObfuscatedName for variable failed: %v", err)
	}
	if !strings.Contains(result, varName) {
		t.Errorf("Obfuscated variable %s not found in obfuscated output", varName)
	}

	// A name that never appeared
	if _, err := obf.LookupObfuscatedName("ghost", "variable"); err == nil {
		t.Errorf("Expected error for unknown name, got nil")
	}
}

func TestPrintInfo(t *testing.T) {
	// Capture stdout
	originalStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Test with Testing flag set to false (default)
	config.Testing = false
	PrintInfo("Test output: %s\n", "visible")

	// Read captured output
	w.Close()
	os.Stdout = originalStdout
	var buf bytes.Buffer
	io.Copy(&buf, r)

	// Verify output was printed when Testing=false
	if !strings.Contains(buf.String(), "Test output: visible") {
		t.Error("Expected output to be printed when Testing=false")
	}

	// Reset capture
	r, w, _ = os.Pipe()
	os.Stdout = w

	// Test with Testing flag set to true
	config.Testing = true
	PrintInfo("Test output: %s\n", "invisible")

	// Read captured output
	w.Close()
	os.Stdout = originalStdout
	buf.Reset()
	io.Copy(&buf, r)

	// Verify no output was printed when Testing=true
	if buf.String() != "" {
		t.Errorf("Expected no output when Testing=true, got: %s", buf.String())
	}

	// Reset Testing flag to default value
	config.Testing = false
}
