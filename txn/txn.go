// Package txn implements the transactional block/workflow data model:
// validation, rollback planning, and workflow rollback ordering.
//
// Grounded on original_source/src/session/transaction.rs.
package txn

import (
	"strconv"
	"time"

	"github.com/mvandenburg/netssh/neterr"
)

// CommandBlockKind classifies a block's steps as read-only or
// state-mutating.
type CommandBlockKind int

const (
	Show CommandBlockKind = iota
	ConfigKind
)

func (k CommandBlockKind) String() string {
	if k == Show {
		return "Show"
	}
	return "Config"
}

// RollbackPolicyKind selects how a Config block compensates on
// failure.
type RollbackPolicyKind int

const (
	PolicyNone RollbackPolicyKind = iota
	PolicyWholeResource
	PolicyPerStep
)

// RollbackPolicy is None, WholeResource{mode, undo, timeout?}, or
// PerStep. Only the fields relevant to Kind are meaningful.
type RollbackPolicy struct {
	Kind    RollbackPolicyKind
	Mode    string        // WholeResource only
	Undo    string        // WholeResource only
	Timeout time.Duration // WholeResource only; 0 means "use step default"
}

// Step is (mode, command, timeout?, rollback_command?).
type Step struct {
	Mode            string
	Command         string
	Timeout         time.Duration // 0 means default (60s, applied by session)
	RollbackCommand string        // PerStep only
}

// Block is (name, kind, rollback_policy, steps, fail_fast).
type Block struct {
	Name           string
	Kind           CommandBlockKind
	RollbackPolicy RollbackPolicy
	Steps          []Step
	FailFast       bool
}

// Workflow is (name, blocks, fail_fast).
type Workflow struct {
	Name     string
	Blocks   []Block
	FailFast bool
}

// Validate checks the single-step invariant spec.md §4.4 requires:
// non-empty mode and command.
func (s Step) Validate() error {
	if s.Mode == "" {
		return &neterr.InvalidTransaction{Msg: "step mode must not be empty"}
	}
	if s.Command == "" {
		return &neterr.InvalidTransaction{Msg: "step command must not be empty"}
	}
	return nil
}

// Validate checks a block's invariants: non-empty steps; Show implies
// PolicyNone; Config implies not PolicyNone, and for WholeResource
// requires mode+undo, for PerStep requires every step to carry a
// rollback command.
func (b Block) Validate() error {
	if len(b.Steps) == 0 {
		return &neterr.InvalidTransaction{Msg: "block \"" + b.Name + "\" has no steps"}
	}
	for _, s := range b.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	switch b.Kind {
	case Show:
		if b.RollbackPolicy.Kind != PolicyNone {
			return &neterr.InvalidTransaction{Msg: "Show block \"" + b.Name + "\" must use rollback policy None"}
		}
	case ConfigKind:
		switch b.RollbackPolicy.Kind {
		case PolicyNone:
			return &neterr.InvalidTransaction{Msg: "Config block \"" + b.Name + "\" must not use rollback policy None"}
		case PolicyWholeResource:
			if b.RollbackPolicy.Mode == "" || b.RollbackPolicy.Undo == "" {
				return &neterr.InvalidTransaction{Msg: "Config block \"" + b.Name + "\" WholeResource policy requires mode and undo command"}
			}
		case PolicyPerStep:
			for i, s := range b.Steps {
				if s.RollbackCommand == "" {
					return &neterr.InvalidTransaction{Msg: "Config block \"" + b.Name + "\" PerStep policy requires a rollback command on every step (missing at index " + strconv.Itoa(i) + ")"}
				}
			}
		}
	}
	return nil
}

// Validate checks a workflow's invariants: non-empty blocks, each
// individually valid.
func (w Workflow) Validate() error {
	if len(w.Blocks) == 0 {
		return &neterr.InvalidTransaction{Msg: "workflow \"" + w.Name + "\" has no blocks"}
	}
	for _, b := range w.Blocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PlannedRollback is one synthesized rollback command.
type PlannedRollback struct {
	Mode    string
	Command string
	Timeout time.Duration
}

// PlanRollback synthesizes the rollback commands for executedStepIndices
// (the indices, in execution order, of steps that completed
// successfully) according to b.RollbackPolicy.
//
//   - None: empty plan.
//   - WholeResource: one command, regardless of how many steps ran
//     (even zero).
//   - PerStep: one command per executed index, in reverse order, each
//     inheriting its own step's timeout.
func (b Block) PlanRollback(executedStepIndices []int) []PlannedRollback {
	switch b.RollbackPolicy.Kind {
	case PolicyNone:
		return nil
	case PolicyWholeResource:
		return []PlannedRollback{{
			Mode:    b.RollbackPolicy.Mode,
			Command: b.RollbackPolicy.Undo,
			Timeout: b.RollbackPolicy.Timeout,
		}}
	case PolicyPerStep:
		plan := make([]PlannedRollback, 0, len(executedStepIndices))
		for i := len(executedStepIndices) - 1; i >= 0; i-- {
			idx := executedStepIndices[i]
			step := b.Steps[idx]
			plan = append(plan, PlannedRollback{
				Mode:    step.Mode,
				Command: step.RollbackCommand,
				Timeout: step.Timeout,
			})
		}
		return plan
	}
	return nil
}

// WorkflowRollbackOrder returns the indices of previously-committed
// blocks that must be rolled back, in reverse order, filtered to
// those strictly before failedBlockIndex.
func WorkflowRollbackOrder(committedIndices []int, failedBlockIndex int) []int {
	var eligible []int
	for _, i := range committedIndices {
		if i < failedBlockIndex {
			eligible = append(eligible, i)
		}
	}
	out := make([]int, 0, len(eligible))
	for i := len(eligible) - 1; i >= 0; i-- {
		out = append(out, eligible[i])
	}
	return out
}
