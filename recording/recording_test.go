package recording

import (
	"testing"
	"time"

	"github.com/mvandenburg/netssh/internal/clock"
	"github.com/mvandenburg/netssh/neterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderOffLevelRecordsNothing(t *testing.T) {
	r := New(Off)
	r.RecordEvent(PromptChangedEvent("router# "))
	assert.Empty(t, r.Entries())
}

func TestRecorderKeyEventsOnlyDropsRawAndPromptChanged(t *testing.T) {
	r := New(KeyEventsOnly)
	r.RecordRawChunk("raw")
	r.RecordEvent(PromptChangedEvent("router# "))
	r.RecordEvent(ConnectionEstablished("10.0.0.1:22", "router> ", "Enable"))
	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, KindConnectionEstablished, entries[0].Kind)
}

func TestRecorderFullLevelKeepsEverything(t *testing.T) {
	r := New(Full)
	r.RecordRawChunk("raw")
	r.RecordEvent(PromptChangedEvent("router# "))
	assert.Len(t, r.Entries(), 2)
}

func TestRecorderJSONLRoundTrip(t *testing.T) {
	mc := clock.NewMock(time.UnixMilli(1000))
	r := NewWithClock(Full, mc)
	r.RecordEvent(ConnectionEstablished("10.0.0.1:22", "router> ", "Enable"))
	mc.Advance(5 * time.Millisecond)
	r.RecordEvent(CommandOutputEvent("show version", "Enable", "router> ", "router> ", "Enable", "Enable", true, "IOS 15.2", "show version\nIOS 15.2\nrouter> "))

	doc, err := r.ToJSONL()
	require.NoError(t, err)

	entries, err := FromJSONL(doc)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindConnectionEstablished, entries[0].Kind)
	assert.Equal(t, "router> ", entries[0].PromptAfter)
	assert.Equal(t, KindCommandOutput, entries[1].Kind)
	assert.Equal(t, "show version", entries[1].Command)
	assert.True(t, entries[1].Success)
}

func TestFromJSONLAppliesLegacyFieldAliasing(t *testing.T) {
	line := `{"kind":"connection_established","ts_ms":1000,"device_addr":"10.0.0.1:22","prompt":"router> ","state":"Enable"}`
	entries, err := FromJSONL(line)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "router> ", entries[0].PromptAfter)
	assert.Equal(t, "Enable", entries[0].FSMPromptAfter)
}

func TestFromJSONLSkipsBlankLines(t *testing.T) {
	doc := "\n\n" + `{"kind":"raw_chunk","ts_ms":1,"data":"x"}` + "\n\n"
	entries, err := FromJSONL(doc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNormalizeJSONLSortsAndFiltersByDefault(t *testing.T) {
	const noisy = `{"kind":"state_changed","ts_ms":300,"state":"Config"}
{"kind":"raw_chunk","ts_ms":100,"data":"noise"}
{"kind":"prompt_changed","ts_ms":150,"prompt":"router(config)# "}
{"kind":"command_output","ts_ms":200,"command":"show version","content":"IOS"}
`
	out, err := NormalizeJSONL(noisy, NormalizeOptions{})
	require.NoError(t, err)

	entries, err := FromJSONL(out)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindCommandOutput, entries[0].Kind)
	assert.Equal(t, KindStateChanged, entries[1].Kind)
}

func TestNormalizeJSONLCanKeepRawAndPromptChanged(t *testing.T) {
	const doc = `{"kind":"raw_chunk","ts_ms":1,"data":"x"}
{"kind":"prompt_changed","ts_ms":2,"prompt":"p"}
`
	out, err := NormalizeJSONL(doc, NormalizeOptions{KeepRawChunks: true, KeepPromptChanged: true})
	require.NoError(t, err)
	entries, err := FromJSONL(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNormalizeJSONLIsIdempotent(t *testing.T) {
	const doc = `{"kind":"command_output","ts_ms":1,"command":"show version"}
{"kind":"state_changed","ts_ms":2,"state":"Enable"}
`
	once, err := NormalizeJSONL(doc, NormalizeOptions{})
	require.NoError(t, err)
	twice, err := NormalizeJSONL(once, NormalizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestReplayerReplaysScriptInOrder(t *testing.T) {
	r := New(Full)
	r.RecordEvent(ConnectionEstablished("10.0.0.1:22", "router> ", "Enable"))
	r.RecordEvent(CommandOutputEvent("show version", "Enable", "router> ", "router> ", "Enable", "Enable", true, "IOS 15.2", "..."))
	r.RecordEvent(CommandOutputEvent("show clock", "Enable", "router> ", "router> ", "Enable", "Enable", true, "12:00:00 UTC", "..."))

	p := FromRecorder(r)
	prompt, state, ok := p.InitialContext()
	require.True(t, ok)
	assert.Equal(t, "router> ", prompt)
	assert.Equal(t, "Enable", state)

	results, err := p.ReplayScript([]string{"show version", "show clock"}, "Enable")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "IOS 15.2", results[0].Content)
	assert.Equal(t, "12:00:00 UTC", results[1].Content)
}

func TestReplayerModeMismatchReturnsError(t *testing.T) {
	r := New(Full)
	r.RecordEvent(CommandOutputEvent("show version", "Enable", "", "", "", "", true, "x", "x"))
	p := FromRecorder(r)

	_, err := p.ReplayNextInMode("show version", "Config")
	require.Error(t, err)
	var target *neterr.ReplayMismatchError
	assert.ErrorAs(t, err, &target)
}

func TestReplayerCursorExhaustionReturnsMismatch(t *testing.T) {
	r := New(Full)
	r.RecordEvent(CommandOutputEvent("show version", "Enable", "", "", "", "", true, "x", "x"))
	p := FromRecorder(r)

	_, err := p.ReplayNext("show version")
	require.NoError(t, err)

	_, err = p.ReplayNext("show version")
	require.Error(t, err)
}

func TestReplayerFromJSONLParsesAndReplays(t *testing.T) {
	doc := `{"kind":"command_output","ts_ms":1,"command":"show clock","mode":"Enable","content":"12:00"}` + "\n"
	p, err := ReplayerFromJSONL(doc)
	require.NoError(t, err)
	e, err := p.ReplayNextInMode("show clock", "enable")
	require.NoError(t, err)
	assert.Equal(t, "12:00", e.Content)
}

func TestTxLifecycleEventsRoundTripThroughJSONL(t *testing.T) {
	r := New(Full)
	r.RecordEvent(TxBlockStartedEvent("acl-update"))
	r.RecordEvent(TxStepSucceededEvent("acl-update", 0))
	r.RecordEvent(TxStepFailedEvent("acl-update", 1, "timeout"))
	r.RecordEvent(TxRollbackStartedEvent("acl-update"))
	r.RecordEvent(TxRollbackStepSucceededEvent("acl-update", "undo acl 3000"))
	r.RecordEvent(TxBlockFinishedEvent("acl-update", false, true, true))
	r.RecordEvent(TxWorkflowStartedEvent("nightly-maintenance"))
	r.RecordEvent(TxWorkflowFinishedEvent("nightly-maintenance", false, true))

	doc, err := r.ToJSONL()
	require.NoError(t, err)
	entries, err := FromJSONL(doc)
	require.NoError(t, err)
	require.Len(t, entries, 8)

	step1 := entries[1]
	require.NotNil(t, step1.StepIndex)
	assert.Equal(t, 0, *step1.StepIndex)

	finished := entries[5]
	require.NotNil(t, finished.Committed)
	assert.False(t, *finished.Committed)
	require.NotNil(t, finished.RollbackSucceeded)
	assert.True(t, *finished.RollbackSucceeded)
}
