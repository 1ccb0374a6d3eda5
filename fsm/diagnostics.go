package fsm

import "sort"

// Diagnostics is the result of a static analysis over a handler's
// declared states, edges and prompt patterns. It never touches the
// live current-state cursor.
//
// Grounded on original_source/src/device.rs's diagnose_state_machine.
type Diagnostics struct {
	MissingEdgeSources []string `json:"missing_edge_sources"`
	MissingEdgeTargets []string `json:"missing_edge_targets"`
	EntryStates        []string `json:"entry_states"`
	Reachable          []string `json:"reachable"`
	Unreachable        []string `json:"unreachable"`
	DeadEnds           []string `json:"dead_ends"`
	DuplicatePrompts   []string `json:"duplicate_prompts"`
	SelfLoopOnly       []string `json:"self_loop_only"`
}

// HasIssues reports whether any of the diagnostic categories that
// indicate a graph defect are non-empty.
func (d Diagnostics) HasIssues() bool {
	return len(d.MissingEdgeSources) > 0 ||
		len(d.MissingEdgeTargets) > 0 ||
		len(d.Unreachable) > 0 ||
		len(d.DeadEnds) > 0 ||
		len(d.DuplicatePrompts) > 0 ||
		len(d.SelfLoopOnly) > 0
}

// Diagnose runs the static graph analysis over the handler's declared
// states and edges, and the wrapped prompt patterns used at
// construction for duplicate detection.
func (h *Handler) Diagnose() Diagnostics {
	declared := map[string]bool{}
	for _, s := range h.states {
		declared[s] = true
	}

	var d Diagnostics
	outDeg := map[string]int{}
	inDeg := map[string]int{}
	adj := map[string][]string{}

	seenMissingSrc := map[string]bool{}
	seenMissingTgt := map[string]bool{}
	for _, e := range h.edges {
		if !declared[e.From] {
			if !seenMissingSrc[e.From] {
				seenMissingSrc[e.From] = true
				d.MissingEdgeSources = append(d.MissingEdgeSources, e.From)
			}
			continue
		}
		if !declared[e.To] {
			if !seenMissingTgt[e.To] {
				seenMissingTgt[e.To] = true
				d.MissingEdgeTargets = append(d.MissingEdgeTargets, e.To)
			}
			continue
		}
		outDeg[e.From]++
		inDeg[e.To]++
		adj[e.From] = append(adj[e.From], e.To)
	}
	sort.Strings(d.MissingEdgeSources)
	sort.Strings(d.MissingEdgeTargets)

	// Graph states are those participating in at least one valid edge
	// endpoint (from or to a declared state).
	graphStates := map[string]bool{}
	for _, e := range h.edges {
		if declared[e.From] {
			graphStates[e.From] = true
		}
		if declared[e.To] {
			graphStates[e.To] = true
		}
	}

	for s := range graphStates {
		if inDeg[s] == 0 {
			d.EntryStates = append(d.EntryStates, s)
		}
	}
	sort.Strings(d.EntryStates)

	seeds := append([]string{}, d.EntryStates...)
	if len(seeds) == 0 {
		// Fully cyclic graph: fall back to the lexicographically-first
		// declared graph state.
		var all []string
		for s := range graphStates {
			all = append(all, s)
		}
		sort.Strings(all)
		if len(all) > 0 {
			seeds = []string{all[0]}
		}
	}

	reached := map[string]bool{}
	queue := append([]string{}, seeds...)
	for _, s := range seeds {
		reached[s] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range adj[cur] {
			if !reached[n] {
				reached[n] = true
				queue = append(queue, n)
			}
		}
	}
	for s := range reached {
		d.Reachable = append(d.Reachable, s)
	}
	sort.Strings(d.Reachable)

	for s := range graphStates {
		if !reached[s] {
			d.Unreachable = append(d.Unreachable, s)
		}
	}
	sort.Strings(d.Unreachable)

	for s := range graphStates {
		if outDeg[s] == 0 {
			d.DeadEnds = append(d.DeadEnds, s)
		}
	}
	sort.Strings(d.DeadEnds)

	for s := range graphStates {
		if outDeg[s] == 0 {
			continue
		}
		allSelf := true
		for _, n := range adj[s] {
			if n != s {
				allSelf = false
				break
			}
		}
		if allSelf {
			d.SelfLoopOnly = append(d.SelfLoopOnly, s)
		}
	}
	sort.Strings(d.SelfLoopOnly)

	// Duplicate prompt patterns: identical wrapped pattern strings
	// shared by more than one state.
	byPattern := map[string][]string{}
	for _, cp := range h.combined {
		if cp.stateIndex == StateMore || cp.stateIndex == StateError {
			continue
		}
		if !h.isPromptState(cp.stateIndex) {
			continue
		}
		name := h.StateName(cp.stateIndex)
		pat := cp.re.String()
		found := false
		for _, n := range byPattern[pat] {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			byPattern[pat] = append(byPattern[pat], name)
		}
	}
	for pat, states := range byPattern {
		if len(states) > 1 {
			d.DuplicatePrompts = append(d.DuplicatePrompts, pat)
		}
	}
	sort.Strings(d.DuplicatePrompts)

	return d
}
