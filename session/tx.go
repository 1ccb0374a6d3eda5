package session

import (
	"fmt"

	"github.com/mvandenburg/netssh/recording"
	"github.com/mvandenburg/netssh/txn"
)

// ExecuteTxBlock runs block's steps in order, rolling back on failure
// according to block.RollbackPolicy for Config blocks. Show blocks
// never roll back.
//
// Grounded on original_source/src/session/client.rs's
// execute_tx_block.
func (s *Session) ExecuteTxBlock(block txn.Block, sys *string) (txn.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeTxBlockLocked(block, sys)
}

func (s *Session) executeTxBlockLocked(block txn.Block, sys *string) (txn.Result, error) {
	if err := block.Validate(); err != nil {
		return txn.Result{}, err
	}
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxBlockStartedEvent(block.Name))
	}

	var executed []int
	var outcomes []txn.StepOutcome
	failed := false

	for idx, step := range block.Steps {
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		out, err := s.writeWithModeLocked(step.Command, step.Mode, sys, timeout)
		switch {
		case err == nil && out.Success:
			executed = append(executed, idx)
			outcomes = append(outcomes, txn.StepOutcome{Index: idx, Success: true})
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxStepSucceededEvent(block.Name, idx))
			}
		case err == nil:
			reason := fmt.Sprintf("step[%d] command failed: %q output=%q", idx, step.Command, out.Content)
			outcomes = append(outcomes, txn.StepOutcome{Index: idx, Success: false, Reason: reason})
			failed = true
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxStepFailedEvent(block.Name, idx, reason))
			}
		default:
			reason := fmt.Sprintf("step[%d] command error: %v", idx, err)
			outcomes = append(outcomes, txn.StepOutcome{Index: idx, Success: false, Reason: reason})
			failed = true
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxStepFailedEvent(block.Name, idx, reason))
			}
		}
		if failed && block.FailFast {
			break
		}
	}

	if !failed {
		result := txn.Result{BlockName: block.Name, Committed: true, StepOutcomes: outcomes}
		if r := s.rec(); r != nil {
			r.RecordEvent(recording.TxBlockFinishedEvent(block.Name, true, false, false))
		}
		return result, nil
	}

	if block.Kind == txn.Show {
		result := txn.Result{BlockName: block.Name, Committed: false, StepOutcomes: outcomes}
		if r := s.rec(); r != nil {
			r.RecordEvent(recording.TxBlockFinishedEvent(block.Name, false, false, false))
		}
		return result, nil
	}

	result := s.rollbackBlockLocked(block, executed, outcomes, sys)
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxBlockFinishedEvent(block.Name, false, result.RollbackAttempted, result.RollbackSucceeded))
	}
	return result, nil
}

// rollbackBlockLocked synthesizes and executes the rollback plan for a
// failed Config block's executed steps, collecting per-command
// failures rather than aborting on the first one.
func (s *Session) rollbackBlockLocked(block txn.Block, executed []int, outcomes []txn.StepOutcome, sys *string) txn.Result {
	plan := block.PlanRollback(executed)
	result := txn.Result{BlockName: block.Name, Committed: false, StepOutcomes: outcomes}

	if len(plan) == 0 {
		result.RollbackAttempted = false
		result.RollbackErrors = []txn.RollbackError{{Reason: "rollback not attempted: no rollback commands for executed steps"}}
		return result
	}

	result.RollbackAttempted = true
	result.RollbackSucceeded = true
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxRollbackStartedEvent(block.Name))
	}

	for _, rb := range plan {
		timeout := rb.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		out, err := s.writeWithModeLocked(rb.Command, rb.Mode, sys, timeout)
		switch {
		case err == nil && out.Success:
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepSucceededEvent(block.Name, rb.Command))
			}
		case err == nil:
			result.RollbackSucceeded = false
			reason := fmt.Sprintf("rollback command failed: %q output=%q", rb.Command, out.Content)
			result.RollbackErrors = append(result.RollbackErrors, txn.RollbackError{Mode: rb.Mode, Command: rb.Command, Reason: reason})
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepFailedEvent(block.Name, rb.Command, reason))
			}
		default:
			result.RollbackSucceeded = false
			reason := fmt.Sprintf("rollback command error: %q err=%v", rb.Command, err)
			result.RollbackErrors = append(result.RollbackErrors, txn.RollbackError{Mode: rb.Mode, Command: rb.Command, Reason: reason})
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepFailedEvent(block.Name, rb.Command, reason))
			}
		}
	}
	return result
}

// rollbackCommittedBlockLocked rolls back a block that had fully
// committed, as part of workflow-level compensation: a Show block is
// a no-op; a Config block is rolled back as if every step executed.
func (s *Session) rollbackCommittedBlockLocked(block txn.Block, sys *string) (bool, []txn.RollbackError) {
	if block.Kind == txn.Show {
		return true, nil
	}
	executed := make([]int, len(block.Steps))
	for i := range block.Steps {
		executed[i] = i
	}
	plan := block.PlanRollback(executed)

	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxRollbackStartedEvent(block.Name))
	}

	succeeded := true
	var errs []txn.RollbackError
	for _, rb := range plan {
		timeout := rb.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		out, err := s.writeWithModeLocked(rb.Command, rb.Mode, sys, timeout)
		switch {
		case err == nil && out.Success:
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepSucceededEvent(block.Name, rb.Command))
			}
		case err == nil:
			succeeded = false
			reason := fmt.Sprintf("workflow rollback command failed for block %q: %q output=%q", block.Name, rb.Command, out.Content)
			errs = append(errs, txn.RollbackError{Mode: rb.Mode, Command: rb.Command, Reason: reason})
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepFailedEvent(block.Name, rb.Command, reason))
			}
		default:
			succeeded = false
			reason := fmt.Sprintf("workflow rollback command error for block %q: %q err=%v", block.Name, rb.Command, err)
			errs = append(errs, txn.RollbackError{Mode: rb.Mode, Command: rb.Command, Reason: reason})
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.TxRollbackStepFailedEvent(block.Name, rb.Command, reason))
			}
		}
	}
	return succeeded, errs
}

// ExecuteTxWorkflow runs each block in order. If any block fails to
// commit, previously-committed blocks are rolled back in reverse
// order after the failing block's own in-block rollback has
// completed.
//
// Grounded on original_source/src/session/client.rs's
// execute_tx_workflow.
func (s *Session) ExecuteTxWorkflow(workflow txn.Workflow, sys *string) (txn.WorkflowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeTxWorkflowLocked(workflow, sys)
}

func (s *Session) executeTxWorkflowLocked(workflow txn.Workflow, sys *string) (txn.WorkflowResult, error) {
	if err := workflow.Validate(); err != nil {
		return txn.WorkflowResult{}, err
	}
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxWorkflowStartedEvent(workflow.Name))
	}

	var blockResults []txn.Result
	var committedIdx []int
	failedIdx := -1

	for idx, block := range workflow.Blocks {
		result, err := s.executeTxBlockLocked(block, sys)
		if err != nil {
			return txn.WorkflowResult{}, err
		}
		blockResults = append(blockResults, result)
		if result.Committed {
			committedIdx = append(committedIdx, idx)
			continue
		}
		failedIdx = idx
		if workflow.FailFast {
			break
		}
	}

	if failedIdx < 0 {
		if r := s.rec(); r != nil {
			r.RecordEvent(recording.TxWorkflowFinishedEvent(workflow.Name, true, false))
		}
		return txn.WorkflowResult{WorkflowName: workflow.Name, Committed: true, BlockResults: blockResults}, nil
	}

	failedResult := blockResults[failedIdx]
	rollbackAttempted, rollbackSucceeded, initialErrors := txn.FailedBlockSummary(failedResult)
	rollbackErrors := append([]txn.RollbackError{}, initialErrors...)

	for _, idx := range txn.WorkflowRollbackOrder(committedIdx, failedIdx) {
		rollbackAttempted = true
		ok, errs := s.rollbackCommittedBlockLocked(workflow.Blocks[idx], sys)
		if !ok {
			rollbackSucceeded = false
		}
		rollbackErrors = append(rollbackErrors, errs...)
	}

	if r := s.rec(); r != nil {
		r.RecordEvent(recording.TxWorkflowFinishedEvent(workflow.Name, false, rollbackSucceeded))
	}

	return txn.WorkflowResult{
		WorkflowName:      workflow.Name,
		Committed:         false,
		BlockResults:      blockResults,
		RollbackAttempted: rollbackAttempted,
		RollbackSucceeded: rollbackSucceeded,
		RollbackErrors:    rollbackErrors,
	}, nil
}
