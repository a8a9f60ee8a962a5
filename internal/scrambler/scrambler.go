// Package scrambler handles name generation logic and context persistence.
package scrambler

import (
	"bytes"
	"encoding/gob"
	"fmt"
	mathrand "math/rand"
	"os"
	"strings"
	"sync"

	"github.com/whit3rabbit/pymixer/internal/config"
)

const (
	// Characters for the random name pattern.
	firstCharsIdentifier = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	allCharsIdentifier   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	hexChars             = "0123456789abcdef"

	// Limits
	minScrambleLen   = 4
	maxScrambleLen   = 32
	maxRegenAttempts = 50

	// Context serialization version
	contextVersion = "pymixer-scramble-v1.0"
)

func errInvalidType(typeStr string) error {
	return fmt.Errorf("invalid scramble type specified: '%s'", typeStr)
}

// scramblerState holds the data that needs to be persisted.
// Use exported fields for gob encoding.
type scramblerState struct {
	Version      string
	ScrambleMap  map[string]string // original -> scrambled
	RScrambleMap map[string]string // scrambled -> original
	Counter      int64
	CurrentLen   int
}

// Scrambler manages the renaming map for a specific type of identifier.
// Name generation draws from the run's seeded RNG so results are reproducible.
type Scrambler struct {
	sType         ScrambleType
	cfg           *config.Config
	rng           *mathrand.Rand
	mode          string
	targetLength  int
	currentLength int      // current generation length, grows on collisions
	patterns      []string // excluded substring patterns (lowercase)

	// State to be persisted (protected by mutex)
	scrambleMap  map[string]string
	rScrambleMap map[string]string
	counter      int64

	mu sync.RWMutex
}

// NewScrambler creates and initializes a scrambler for a specific type.
func NewScrambler(sType ScrambleType, cfg *config.Config, rng *mathrand.Rand) (*Scrambler, error) {
	known := false
	for _, t := range AllScrambleTypes {
		if t == sType {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown scramble type: %s", sType)
	}
	if rng == nil {
		return nil, fmt.Errorf("scrambler requires a seeded RNG")
	}

	s := &Scrambler{
		sType:        sType,
		cfg:          cfg,
		rng:          rng,
		scrambleMap:  make(map[string]string),
		rScrambleMap: make(map[string]string),
	}

	s.mode = cfg.CustomEncodings.NamePattern
	if s.mode == "" {
		s.mode = config.NamePatternRandom
	}
	switch s.mode {
	case config.NamePatternRandom, config.NamePatternHex, config.NamePatternNumeric:
	default:
		fmt.Fprintf(os.Stderr, "Warning: Invalid name_pattern '%s', using 'random'.\n", s.mode)
		s.mode = config.NamePatternRandom
	}

	s.targetLength = cfg.ScrambleLength
	if s.targetLength < minScrambleLen {
		s.targetLength = minScrambleLen
	}
	if s.targetLength > maxScrambleLen {
		s.targetLength = maxScrambleLen
	}
	s.currentLength = s.targetLength

	for _, p := range cfg.ExcludedPatterns {
		if p != "" {
			s.patterns = append(s.patterns, strings.ToLower(p))
		}
	}

	return s, nil
}

// ShouldIgnore checks if a name must be preserved, based on reserved Python
// names and the configured excluded patterns. Patterns match as substrings,
// the contract documented for excluded_patterns.
func (s *Scrambler) ShouldIgnore(name string) bool {
	if isReserved(name, s.sType) {
		return true
	}
	lowerName := strings.ToLower(name)
	for _, p := range s.patterns {
		if strings.Contains(lowerName, p) {
			return true
		}
	}
	return false
}

// Scramble returns the stable replacement for originalName, generating one on
// first use. Ignored names come back unchanged.
func (s *Scrambler) Scramble(originalName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ShouldIgnore(originalName) {
		return originalName
	}
	if scrambled, exists := s.scrambleMap[originalName]; exists {
		return scrambled
	}

	for attempt := 0; attempt < maxRegenAttempts; attempt++ {
		candidate := s.generateName()
		if isReserved(candidate, s.sType) {
			continue
		}
		if _, exists := s.rScrambleMap[candidate]; exists {
			if attempt > 5 && s.currentLength < maxScrambleLen {
				s.currentLength++ // grow the name space
			}
			continue
		}
		s.scrambleMap[originalName] = candidate
		s.rScrambleMap[candidate] = originalName
		return candidate
	}
	fmt.Fprintf(os.Stderr, "Error: Failed to generate unique scrambled name for '%s' (type: %s) after %d attempts.\n",
		originalName, s.sType, maxRegenAttempts)
	s.scrambleMap[originalName] = originalName // store original as fallback
	s.rScrambleMap[originalName] = originalName
	return originalName
}

// Generate returns a fresh name not tied to any original, for techniques that
// introduce brand new identifiers (import aliases, hoisted string helpers).
// The name is recorded in the reverse map so later calls cannot collide.
func (s *Scrambler) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxRegenAttempts; attempt++ {
		candidate := s.generateName()
		if isReserved(candidate, s.sType) {
			continue
		}
		if _, exists := s.rScrambleMap[candidate]; exists {
			continue
		}
		s.rScrambleMap[candidate] = candidate
		return candidate
	}
	// Counter suffix guarantees uniqueness when the RNG keeps colliding.
	s.counter++
	candidate := fmt.Sprintf("_gen%d", s.counter)
	s.rScrambleMap[candidate] = candidate
	return candidate
}

// Unscramble looks up the original name given a scrambled name.
func (s *Scrambler) Unscramble(scrambledName string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	original, found := s.rScrambleMap[scrambledName]
	return original, found
}

// LookupObfuscated attempts to find the obfuscated name for the given original
// name. Returns the obfuscated name and whether it was found.
func (s *Scrambler) LookupObfuscated(original string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obfuscated, found := s.scrambleMap[original]
	return obfuscated, found
}

// Mapping returns a copy of the original -> scrambled map.
func (s *Scrambler) Mapping() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.scrambleMap))
	for k, v := range s.scrambleMap {
		out[k] = v
	}
	return out
}

// generateName produces a candidate in the configured pattern. Callers hold
// the lock.
func (s *Scrambler) generateName() string {
	switch s.mode {
	case config.NamePatternHex:
		sb := strings.Builder{}
		sb.WriteString("_0x")
		for i := 0; i < s.currentLength; i++ {
			sb.WriteByte(hexChars[s.rng.Intn(len(hexChars))])
		}
		return sb.String()
	case config.NamePatternNumeric:
		s.counter++
		return fmt.Sprintf("_%s%d", string(s.sType[0]), s.counter)
	default: // random
		length := s.currentLength
		sb := strings.Builder{}
		sb.Grow(length)
		sb.WriteByte(firstCharsIdentifier[s.rng.Intn(len(firstCharsIdentifier))])
		for i := 1; i < length; i++ {
			sb.WriteByte(allCharsIdentifier[s.rng.Intn(len(allCharsIdentifier))])
		}
		return sb.String()
	}
}

// --- Context Persistence ---

// SaveState saves the scrambler's current mapping state to a file.
func (s *Scrambler) SaveState(filePath string) error {
	s.mu.RLock()
	state := scramblerState{
		Version:      contextVersion,
		ScrambleMap:  s.scrambleMap,
		RScrambleMap: s.rScrambleMap,
		Counter:      s.counter,
		CurrentLen:   s.currentLength,
	}
	s.mu.RUnlock()

	var buffer bytes.Buffer
	encoder := gob.NewEncoder(&buffer)
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("failed to encode scrambler state: %w", err)
	}
	if err := os.WriteFile(filePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write scrambler state to file %s: %w", filePath, err)
	}
	return nil
}

// LoadState loads the scrambler's state from a file, replacing the current
// state. A missing file is not an error, it just means no previous state.
func (s *Scrambler) LoadState(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read scrambler state file %s: %w", filePath, err)
	}

	buffer := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buffer)
	var state scramblerState
	if err := decoder.Decode(&state); err != nil {
		return fmt.Errorf("failed to decode scrambler state from file %s: %w", filePath, err)
	}
	if state.Version != contextVersion {
		return fmt.Errorf("incompatible context version: file has '%s', expected '%s'", state.Version, contextVersion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrambleMap = state.ScrambleMap
	s.rScrambleMap = state.RScrambleMap
	s.counter = state.Counter
	s.currentLength = state.CurrentLen
	if s.scrambleMap == nil {
		s.scrambleMap = make(map[string]string)
	}
	if s.rScrambleMap == nil {
		s.rScrambleMap = make(map[string]string)
	}
	return nil
}
