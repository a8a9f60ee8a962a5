package obfuscator

// Resolve orders the requested techniques so that every requested dependency
// runs before its dependent. Dependencies that were not requested are left
// out rather than pulled in. Techniques with no ordering relation keep the
// order of the request list. A dependency cycle among the requested set is a
// CircularDependencyError; an unregistered name is an UnknownTechniqueError.
func (r *Registry) Resolve(requested []string) ([]string, error) {
	inRequest := make(map[string]bool, len(requested))
	for _, name := range requested {
		if _, ok := r.techniques[name]; !ok {
			return nil, &UnknownTechniqueError{Name: name}
		}
		inRequest[name] = true
	}

	const (
		unvisited = iota
		visiting  // temporary mark, on the current DFS path
		done
	)
	marks := make(map[string]int, len(requested))
	resolved := make([]string, 0, len(requested))

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return &CircularDependencyError{Name: name}
		}
		marks[name] = visiting
		for _, dep := range r.techniques[name].Dependencies {
			if !inRequest[dep] {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		marks[name] = done
		resolved = append(resolved, name)
		return nil
	}

	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// CheckConflicts returns every conflicting pair within the requested set.
// Conflict declarations are symmetric: a one-directional declaration blocks
// both orderings. Each pair is reported once, in request order. An empty
// result means the set is safe to run.
func (r *Registry) CheckConflicts(requested []string) []ConflictPair {
	conflicts := make(map[string]map[string]bool, len(requested))
	for _, name := range requested {
		t, ok := r.techniques[name]
		if !ok {
			continue
		}
		if conflicts[name] == nil {
			conflicts[name] = make(map[string]bool)
		}
		for _, c := range t.Conflicts {
			conflicts[name][c] = true
		}
	}

	var pairs []ConflictPair
	for i, a := range requested {
		for _, b := range requested[i+1:] {
			if conflicts[a][b] || conflicts[b][a] {
				pairs = append(pairs, ConflictPair{First: a, Second: b})
			}
		}
	}
	return pairs
}
