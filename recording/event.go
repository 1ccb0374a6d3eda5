// Package recording implements the session event recorder and
// offline replayer: a structured, timestamped event log with JSONL
// round-trip and legacy-field compatibility, plus a replayer that
// threads a script through recorded CommandOutput events without an
// SSH connection.
//
// Grounded on original_source/src/session/recording.rs. The Tx-
// lifecycle event variants (TxBlockStarted, TxStepSucceeded, …) are
// not present in that file — client.rs constructs them without a
// declared variant, a version inconsistency noted during design — but
// are required here per spec.md §4.5 and implemented as part of the
// same tagged union.
package recording

// Level is the session recording granularity.
type Level int

const (
	Off Level = iota
	KeyEventsOnly
	Full
)

// Event kinds, used as the "kind" JSON discriminator.
const (
	KindConnectionEstablished  = "connection_established"
	KindConnectionClosed       = "connection_closed"
	KindCommandOutput          = "command_output"
	KindPromptChanged          = "prompt_changed"
	KindStateChanged           = "state_changed"
	KindRawChunk               = "raw_chunk"
	KindTxBlockStarted         = "tx_block_started"
	KindTxStepSucceeded        = "tx_step_succeeded"
	KindTxStepFailed           = "tx_step_failed"
	KindTxRollbackStarted      = "tx_rollback_started"
	KindTxRollbackStepSucceeded = "tx_rollback_step_succeeded"
	KindTxRollbackStepFailed   = "tx_rollback_step_failed"
	KindTxBlockFinished        = "tx_block_finished"
	KindTxWorkflowStarted      = "tx_workflow_started"
	KindTxWorkflowFinished     = "tx_workflow_finished"
)

// Event is the tagged union of everything that can be recorded. Go has
// no sum type, so this is a flat struct with the fields relevant to
// Kind populated and the rest zero; JSON encoding omits zero optional
// fields via omitempty, matching the original's per-variant field set.
type Event struct {
	Kind string `json:"kind"`

	// ConnectionEstablished
	DeviceAddr     string `json:"device_addr,omitempty"`
	PromptAfter    string `json:"prompt_after,omitempty"`
	FSMPromptAfter string `json:"fsm_prompt_after,omitempty"`

	// ConnectionClosed
	Reason          string `json:"reason,omitempty"`
	PromptBefore    string `json:"prompt_before,omitempty"`
	FSMPromptBefore string `json:"fsm_prompt_before,omitempty"`

	// CommandOutput
	Command string `json:"command,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Success bool   `json:"success,omitempty"`
	Content string `json:"content,omitempty"`
	All     string `json:"all,omitempty"`

	// PromptChanged
	Prompt string `json:"prompt,omitempty"`

	// StateChanged
	State string `json:"state,omitempty"`

	// RawChunk
	Data string `json:"data,omitempty"`

	// Tx-lifecycle fields, shared across the nine Tx* kinds.
	BlockName         string `json:"block_name,omitempty"`
	WorkflowName      string `json:"workflow_name,omitempty"`
	StepIndex         *int   `json:"step_index,omitempty"`
	RollbackCommand   string `json:"rollback_command,omitempty"`
	Committed         *bool  `json:"committed,omitempty"`
	RollbackAttempted *bool  `json:"rollback_attempted,omitempty"`
	RollbackSucceeded *bool  `json:"rollback_succeeded,omitempty"`
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// ConnectionEstablished builds a ConnectionEstablished event.
func ConnectionEstablished(deviceAddr, promptAfter, fsmPromptAfter string) Event {
	return Event{Kind: KindConnectionEstablished, DeviceAddr: deviceAddr, PromptAfter: promptAfter, FSMPromptAfter: fsmPromptAfter}
}

// ConnectionClosed builds a ConnectionClosed event.
func ConnectionClosed(reason, promptBefore, fsmPromptBefore string) Event {
	return Event{Kind: KindConnectionClosed, Reason: reason, PromptBefore: promptBefore, FSMPromptBefore: fsmPromptBefore}
}

// CommandOutputEvent builds a CommandOutput event.
func CommandOutputEvent(command, mode, promptBefore, promptAfter, fsmPromptBefore, fsmPromptAfter string, success bool, content, all string) Event {
	return Event{
		Kind: KindCommandOutput, Command: command, Mode: mode,
		PromptBefore: promptBefore, PromptAfter: promptAfter,
		FSMPromptBefore: fsmPromptBefore, FSMPromptAfter: fsmPromptAfter,
		Success: success, Content: content, All: all,
	}
}

// PromptChangedEvent builds a PromptChanged event.
func PromptChangedEvent(prompt string) Event { return Event{Kind: KindPromptChanged, Prompt: prompt} }

// StateChangedEvent builds a StateChanged event.
func StateChangedEvent(state string) Event { return Event{Kind: KindStateChanged, State: state} }

// RawChunkEvent builds a RawChunk event.
func RawChunkEvent(data string) Event { return Event{Kind: KindRawChunk, Data: data} }

// TxBlockStartedEvent builds a TxBlockStarted event.
func TxBlockStartedEvent(blockName string) Event {
	return Event{Kind: KindTxBlockStarted, BlockName: blockName}
}

// TxStepSucceededEvent builds a TxStepSucceeded event.
func TxStepSucceededEvent(blockName string, stepIndex int) Event {
	return Event{Kind: KindTxStepSucceeded, BlockName: blockName, StepIndex: intPtr(stepIndex)}
}

// TxStepFailedEvent builds a TxStepFailed event.
func TxStepFailedEvent(blockName string, stepIndex int, reason string) Event {
	return Event{Kind: KindTxStepFailed, BlockName: blockName, StepIndex: intPtr(stepIndex), Reason: reason}
}

// TxRollbackStartedEvent builds a TxRollbackStarted event.
func TxRollbackStartedEvent(blockName string) Event {
	return Event{Kind: KindTxRollbackStarted, BlockName: blockName}
}

// TxRollbackStepSucceededEvent builds a TxRollbackStepSucceeded event.
func TxRollbackStepSucceededEvent(blockName, command string) Event {
	return Event{Kind: KindTxRollbackStepSucceeded, BlockName: blockName, RollbackCommand: command}
}

// TxRollbackStepFailedEvent builds a TxRollbackStepFailed event.
func TxRollbackStepFailedEvent(blockName, command, reason string) Event {
	return Event{Kind: KindTxRollbackStepFailed, BlockName: blockName, RollbackCommand: command, Reason: reason}
}

// TxBlockFinishedEvent builds a TxBlockFinished event.
func TxBlockFinishedEvent(blockName string, committed, rollbackAttempted, rollbackSucceeded bool) Event {
	return Event{
		Kind: KindTxBlockFinished, BlockName: blockName,
		Committed: boolPtr(committed), RollbackAttempted: boolPtr(rollbackAttempted), RollbackSucceeded: boolPtr(rollbackSucceeded),
	}
}

// TxWorkflowStartedEvent builds a TxWorkflowStarted event.
func TxWorkflowStartedEvent(workflowName string) Event {
	return Event{Kind: KindTxWorkflowStarted, WorkflowName: workflowName}
}

// TxWorkflowFinishedEvent builds a TxWorkflowFinished event.
func TxWorkflowFinishedEvent(workflowName string, committed, rollbackSucceeded bool) Event {
	return Event{Kind: KindTxWorkflowFinished, WorkflowName: workflowName, Committed: boolPtr(committed), RollbackSucceeded: boolPtr(rollbackSucceeded)}
}
