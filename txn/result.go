package txn

import "strconv"

// StepOutcome records one executed (or attempted) step's result.
type StepOutcome struct {
	Index   int
	Success bool
	Reason  string // populated when !Success
}

// RollbackError pairs a failed rollback command with its reason.
type RollbackError struct {
	Mode    string
	Command string
	Reason  string
}

// Result is the outcome of executing a single block.
type Result struct {
	BlockName         string
	Committed         bool
	StepOutcomes      []StepOutcome
	RollbackAttempted bool
	RollbackSucceeded bool
	RollbackErrors    []RollbackError
}

// WorkflowResult is the outcome of executing a workflow.
type WorkflowResult struct {
	WorkflowName      string
	Committed         bool
	BlockResults      []Result
	RollbackAttempted bool
	RollbackSucceeded bool
	RollbackErrors    []RollbackError
}

// FailedBlockRollbackSummary renders a short human-readable summary of
// a single block's rollback outcome.
func FailedBlockRollbackSummary(r Result) string {
	if !r.RollbackAttempted {
		return "no rollback attempted for block \"" + r.BlockName + "\""
	}
	if r.RollbackSucceeded {
		return "rollback succeeded for block \"" + r.BlockName + "\""
	}
	return "rollback failed for block \"" + r.BlockName + "\" (" + strconv.Itoa(len(r.RollbackErrors)) + " error(s))"
}

// FailedBlockSummary seeds a workflow's rollback bookkeeping from the
// block that triggered it: when that block's own in-block rollback
// was never attempted (e.g. a Show block, or no steps had executed
// yet), succeeded defaults to true so only the workflow's own
// compensating rollbacks of earlier blocks can flip it false.
//
// Grounded on original_source/src/session/transaction.rs's
// failed_block_rollback_summary.
func FailedBlockSummary(failed Result) (attempted, succeeded bool, errs []RollbackError) {
	if failed.RollbackAttempted {
		return true, failed.RollbackSucceeded, failed.RollbackErrors
	}
	return false, true, nil
}
