package pool

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvandenburg/netssh/session"
	"github.com/mvandenburg/netssh/txn"
)

// Handle is a caller's view onto a pooled session: a command-job
// channel plus convenience wrappers, mirroring the original's
// mpsc::Sender<CmdJob> handed back from SshConnectionManager::get.
type Handle struct {
	addr  string
	entry *entry
}

// DeviceAddr returns the "user@host:port" cache key behind this
// handle.
func (h *Handle) DeviceAddr() string { return h.addr }

// Execute enqueues a command job and blocks for its result, the way a
// caller holding a CmdJob sender would send and await its responder
// oneshot.
func (h *Handle) Execute(command, mode string, sys *string, timeout time.Duration) (session.Output, error) {
	job := cmdJob{
		command:   command,
		mode:      mode,
		sys:       sys,
		timeout:   timeout,
		responder: make(chan cmdResult, 1),
	}
	id := uuid.New()
	select {
	case h.entry.jobs <- job:
	case <-h.entry.closeCh:
		return session.Output{}, fmt.Errorf("job %s: session %s was evicted before dispatch", id, h.addr)
	}

	select {
	case res := <-job.responder:
		return res.out, res.err
	case <-h.entry.closeCh:
		return session.Output{}, fmt.Errorf("job %s: session %s closed while awaiting result", id, h.addr)
	}
}

// ExecuteTxBlock runs block directly against the cached session,
// bypassing the job channel since block execution already serializes
// through the session's own mutex.
//
// Grounded on original_source/src/session/manager.rs's
// execute_tx_block.
func (h *Handle) ExecuteTxBlock(block txn.Block, sys *string) (txn.Result, error) {
	h.entry.mu.Lock()
	sess := h.entry.sess
	h.entry.mu.Unlock()
	return sess.ExecuteTxBlock(block, sys)
}

// ExecuteTxWorkflow runs workflow directly against the cached
// session.
//
// Grounded on original_source/src/session/manager.rs's
// execute_tx_workflow.
func (h *Handle) ExecuteTxWorkflow(workflow txn.Workflow, sys *string) (txn.WorkflowResult, error) {
	h.entry.mu.Lock()
	sess := h.entry.sess
	h.entry.mu.Unlock()
	return sess.ExecuteTxWorkflow(workflow, sys)
}
