package template

import (
	"testing"
	"time"

	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableTemplatesContainsExpectedNames(t *testing.T) {
	names := Available()
	assert.Contains(t, names, "cisco")
	assert.Contains(t, names, "juniper")
	assert.Contains(t, names, "array")
}

func TestByNameIsCaseInsensitive(t *testing.T) {
	h, err := ByName("CiScO")
	require.NoError(t, err)
	d := h.Diagnose()
	assert.Empty(t, d.MissingEdgeSources)
	assert.Empty(t, d.MissingEdgeTargets)
}

func TestByNameReturnsTemplateNotFoundForUnknownName(t *testing.T) {
	_, err := ByName("unknown-vendor")
	require.Error(t, err)
	var target *neterr.TemplateNotFound
	assert.ErrorAs(t, err, &target)
}

func TestAllBuiltinTemplatesConstructCleanly(t *testing.T) {
	for _, name := range Builtin {
		h, err := ByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, h)
	}
}

func TestTemplateCatalogHasMetadataForAllBuiltins(t *testing.T) {
	catalog := Catalog()
	assert.Equal(t, len(Builtin), len(catalog))
	var hasCisco, hasArray bool
	for _, m := range catalog {
		if m.Name == "cisco" {
			hasCisco = true
		}
		if m.Name == "array" {
			hasArray = true
		}
	}
	assert.True(t, hasCisco)
	assert.True(t, hasArray)
}

func TestMetadataIsCaseInsensitive(t *testing.T) {
	m, err := LookupMetadata("JuNiPeR")
	require.NoError(t, err)
	assert.Equal(t, "juniper", m.Name)
	assert.Equal(t, "Juniper", m.Vendor)
}

func TestDiagnoseTemplateJSON(t *testing.T) {
	out, err := DiagnoseJSON("cisco")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicate_prompts")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, txn.Show, Classify("show version"))
	assert.Equal(t, txn.Show, Classify("DISPLAY current-configuration"))
	assert.Equal(t, txn.Show, Classify("ping 10.0.0.1"))
	assert.Equal(t, txn.ConfigKind, Classify("interface ge0"))
}

func TestS4_HuaweiRollbackInference(t *testing.T) {
	timeout := 30 * time.Second
	b, err := BuildTxBlock("huawei", "cfg", "Config", []string{"acl 3000", "rule permit ip"}, &timeout, nil)
	require.NoError(t, err)
	assert.Equal(t, txn.PolicyPerStep, b.RollbackPolicy.Kind)
	plan := b.PlanRollback([]int{0, 1})
	require.Len(t, plan, 2)
	assert.Equal(t, "undo rule permit ip", plan[0].Command)
	assert.Equal(t, "undo acl 3000", plan[1].Command)
}

func TestS5_WholeResourceRollbackViaBuilder(t *testing.T) {
	timeout := 20 * time.Second
	rollback := "no address-object host WEB01"
	b, err := BuildTxBlock("cisco", "addr", "Config",
		[]string{"address-object host WEB01", "host 10.0.0.10"}, &timeout, &rollback)
	require.NoError(t, err)
	assert.Equal(t, txn.PolicyWholeResource, b.RollbackPolicy.Kind)
	plan := b.PlanRollback([]int{0, 1})
	require.Len(t, plan, 1)
	assert.Equal(t, txn.PlannedRollback{Mode: "Config", Command: "no address-object host WEB01", Timeout: 20 * time.Second}, plan[0])
}

func TestBoundary_HuaweiCannotInferFromAlreadyUndone(t *testing.T) {
	_, err := BuildTxBlock("huawei", "cfg", "Config", []string{"undo acl 3000"}, nil, nil)
	require.Error(t, err)
	var target *neterr.InvalidTransaction
	assert.ErrorAs(t, err, &target)
}

func TestJuniperRollbackRules(t *testing.T) {
	for _, tc := range []struct{ cmd, want string }{
		{"set interfaces ge-0/0/0 disable", "delete interfaces ge-0/0/0 disable"},
		{"activate interfaces ge-0/0/0", "deactivate interfaces ge-0/0/0"},
		{"deactivate interfaces ge-0/0/0", "activate interfaces ge-0/0/0"},
	} {
		rb, ok := inferRollback("juniper", tc.cmd)
		require.True(t, ok, tc.cmd)
		assert.Equal(t, tc.want, rb)
	}
	_, ok := inferRollback("juniper", "delete interfaces ge-0/0/0")
	assert.False(t, ok)
}

func TestOtherVendorNoPrefixInference(t *testing.T) {
	rb, ok := inferRollback("cisco", "interface ge0")
	require.True(t, ok)
	assert.Equal(t, "no interface ge0", rb)

	_, ok = inferRollback("cisco", "no interface ge0")
	assert.False(t, ok)
}

func TestMixedShowConfigCommandsRejected(t *testing.T) {
	_, err := BuildTxBlock("cisco", "mixed", "Enable", []string{"show version", "interface ge0"}, nil, nil)
	require.Error(t, err)
	var target *neterr.InvalidTransaction
	require.ErrorAs(t, err, &target)
	assert.Contains(t, target.Msg, "mixes Show and Config")
}

func TestAllShowProducesShowBlockWithNonePolicy(t *testing.T) {
	b, err := BuildTxBlock("cisco", "inspect", "Enable", []string{"show version", "show ip interface brief"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, txn.Show, b.Kind)
	assert.Equal(t, txn.PolicyNone, b.RollbackPolicy.Kind)
}
