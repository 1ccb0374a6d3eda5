package fsm

import (
	"strings"

	"github.com/mvandenburg/netssh/neterr"
)

// PlannedCommand is one command in a transition plan, paired with the
// state the FSM is expected to land in after it executes.
type PlannedCommand struct {
	Command  string
	NextState string
}

// edgesFrom returns the outgoing edges from state, in declared order.
func (h *Handler) edgesFrom(state string) []Edge {
	var out []Edge
	for _, e := range h.edges {
		if e.From == state {
			out = append(out, e)
		}
	}
	return out
}

// TransStateWrite plans the sequence of commands needed to drive the
// FSM from its current state to target, optionally first exiting a
// sys-scoped context via is_exit edges when sys differs from the
// handler's current captured sys token.
//
// Grounded on original_source/src/device.rs's trans_state_write: (a)
// walk is_exit edges when sys changes, (b) no-op if already at target,
// (c) BFS over edges, (d) UnreachableState on failure, (e) backtrack
// the predecessor map, (f) substitute "{}" with the sys token on
// needs_format edges.
func (h *Handler) TransStateWrite(target string, sys *string) ([]PlannedCommand, error) {
	h.mu.Lock()
	start := h.StateName(h.currentStateIndex)
	currentSys := h.currentSys
	h.mu.Unlock()

	target = strings.ToLower(target)
	if _, ok := h.stateIndex[target]; !ok {
		// Unknown target: BFS will simply never reach it; surface the
		// same UnreachableState the caller expects.
	}

	var plan []PlannedCommand
	effectiveSys := currentSys
	if sys != nil && *sys != currentSys {
		exitPlan, newState, err := h.walkExitEdges(start, currentSys)
		if err != nil {
			return nil, err
		}
		plan = append(plan, exitPlan...)
		start = newState
		effectiveSys = *sys
	}

	if start == target {
		return plan, nil
	}

	bfsPlan, err := h.bfs(start, target, effectiveSys)
	if err != nil {
		return nil, err
	}
	plan = append(plan, bfsPlan...)
	return plan, nil
}

// walkExitEdges walks is_exit=true edges from state until reaching a
// non-sys-prompt state, collecting commands along the way.
func (h *Handler) walkExitEdges(state, sys string) ([]PlannedCommand, string, error) {
	var plan []PlannedCommand
	cur := state
	for {
		idx, ok := h.stateIndex[cur]
		if ok && !h.sysPrompt[idx] {
			return plan, cur, nil
		}
		var exitEdge *Edge
		for _, e := range h.edgesFrom(cur) {
			if e.IsExit {
				ee := e
				exitEdge = &ee
				break
			}
		}
		if exitEdge == nil {
			return nil, "", &neterr.NoExitCommandError{State: cur}
		}
		if _, ok := h.stateIndex[exitEdge.To]; !ok {
			return nil, "", &neterr.TargetStateNotExistError{}
		}
		cmd := exitEdge.Command
		if exitEdge.NeedsFormat {
			cmd = FormatCmd(cmd, sys)
		}
		plan = append(plan, PlannedCommand{Command: cmd, NextState: exitEdge.To})
		cur = exitEdge.To
	}
}

// bfs finds the shortest command path from start to target over the
// declared edges, breadth-first, visiting each state once.
func (h *Handler) bfs(start, target, sys string) ([]PlannedCommand, error) {
	type step struct {
		state string
		via   *Edge
		prev  string
	}
	visited := map[string]bool{start: true}
	queue := []string{start}
	pred := map[string]step{}

	found := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			found = true
			break
		}
		for _, e := range h.edgesFrom(cur) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			edgeCopy := e
			pred[e.To] = step{state: e.To, via: &edgeCopy, prev: cur}
			queue = append(queue, e.To)
		}
	}
	if !found && !visited[target] {
		return nil, &neterr.UnreachableState{State: target}
	}
	if start == target {
		return nil, nil
	}

	// Backtrack from target to start.
	var reversed []PlannedCommand
	cur := target
	for cur != start {
		s, ok := pred[cur]
		if !ok {
			return nil, &neterr.UnreachableState{State: target}
		}
		cmd := s.via.Command
		if s.via.NeedsFormat {
			cmd = FormatCmd(cmd, sys)
		}
		reversed = append(reversed, PlannedCommand{Command: cmd, NextState: s.via.To})
		cur = s.prev
	}
	// reverse
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, nil
}
