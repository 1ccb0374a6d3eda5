package fsm

// Equivalent reports structural equivalence between two handlers,
// ignoring runtime fields (current state/sys/prompt, dynamic
// parameters). Used by the connection pool to decide whether a cached
// session's handler still matches a caller's requested template.
//
// Grounded on original_source/src/session/manager.rs's
// matches_connection_params, which compares declared-states, edges,
// the interactive-input map, prompt/sys-prompt index ranges, and the
// regex-index map — never the compiled regex objects themselves, so
// pattern equality is proxied by the state each pattern resolves to.
func (h *Handler) Equivalent(o *Handler) bool {
	if h == nil || o == nil {
		return h == o
	}
	if !stringSliceEqual(h.states, o.states) {
		return false
	}
	if !edgeSliceEqual(h.edges, o.edges) {
		return false
	}
	if h.promptFirst != o.promptFirst || h.promptLast != o.promptLast {
		return false
	}
	if !intBoolMapEqual(h.sysPrompt, o.sysPrompt) {
		return false
	}
	if !inputMapEqual(h.interactiveInput, o.interactiveInput) {
		return false
	}
	if len(h.combined) != len(o.combined) {
		return false
	}
	for i := range h.combined {
		if h.combined[i].stateIndex != o.combined[i].stateIndex {
			return false
		}
		if (h.combined[i].capture == nil) != (o.combined[i].capture == nil) {
			return false
		}
		if h.combined[i].captureName != o.combined[i].captureName {
			return false
		}
	}
	return true
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func edgeSliceEqual(a, b []Edge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intBoolMapEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func inputMapEqual(a, b map[int]InputEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}
