package txn

import (
	"testing"
	"time"

	"github.com/mvandenburg/netssh/neterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundary_ConfigWithNonePolicyInvalid(t *testing.T) {
	b := Block{
		Name: "b1",
		Kind: ConfigKind,
		Steps: []Step{{Mode: "config", Command: "x"}},
	}
	err := b.Validate()
	require.Error(t, err)
	var target *neterr.InvalidTransaction
	assert.ErrorAs(t, err, &target)
}

func TestBoundary_ShowWithPerStepInvalid(t *testing.T) {
	b := Block{
		Name:           "b1",
		Kind:           Show,
		RollbackPolicy: RollbackPolicy{Kind: PolicyPerStep},
		Steps:          []Step{{Mode: "enable", Command: "show version"}},
	}
	err := b.Validate()
	require.Error(t, err)
}

func TestS5_WholeResourceRollback(t *testing.T) {
	b := Block{
		Name: "addr",
		Kind: ConfigKind,
		RollbackPolicy: RollbackPolicy{
			Kind: PolicyWholeResource,
			Mode: "Config",
			Undo: "no address-object host WEB01",
		},
		Steps: []Step{
			{Mode: "config", Command: "address-object host WEB01", Timeout: 20 * time.Second},
			{Mode: "config", Command: "host 10.0.0.10", Timeout: 20 * time.Second},
		},
	}
	require.NoError(t, b.Validate())

	plan := b.PlanRollback([]int{0, 1})
	require.Len(t, plan, 1)
	assert.Equal(t, PlannedRollback{Mode: "Config", Command: "no address-object host WEB01", Timeout: 0}, plan[0])
}

func TestS4_PerStepRollbackReverseOrder(t *testing.T) {
	b := Block{
		Name: "cfg",
		Kind: ConfigKind,
		RollbackPolicy: RollbackPolicy{Kind: PolicyPerStep},
		Steps: []Step{
			{Mode: "config", Command: "acl 3000", RollbackCommand: "undo acl 3000", Timeout: 30 * time.Second},
			{Mode: "config", Command: "rule permit ip", RollbackCommand: "undo rule permit ip", Timeout: 30 * time.Second},
		},
	}
	require.NoError(t, b.Validate())

	plan := b.PlanRollback([]int{0, 1})
	require.Len(t, plan, 2)
	assert.Equal(t, "undo rule permit ip", plan[0].Command)
	assert.Equal(t, "undo acl 3000", plan[1].Command)
}

func TestInvariant_PerStepRollbackIsExactReverse(t *testing.T) {
	b := Block{
		Name:           "b",
		Kind:           ConfigKind,
		RollbackPolicy: RollbackPolicy{Kind: PolicyPerStep},
		Steps: []Step{
			{Mode: "m", Command: "c0", RollbackCommand: "r0"},
			{Mode: "m", Command: "c1", RollbackCommand: "r1"},
			{Mode: "m", Command: "c2", RollbackCommand: "r2"},
		},
	}
	plan := b.PlanRollback([]int{0, 1, 2})
	require.Len(t, plan, 3)
	assert.Equal(t, []string{"r2", "r1", "r0"}, []string{plan[0].Command, plan[1].Command, plan[2].Command})
}

func TestS7_WorkflowRollbackOrder(t *testing.T) {
	assert.Equal(t, []int{1, 0}, WorkflowRollbackOrder([]int{0, 1}, 2))
	assert.Equal(t, []int{}, WorkflowRollbackOrder(nil, 0))
}

func TestWholeResourceRollbackEvenWithZeroExecutedSteps(t *testing.T) {
	b := Block{
		Name: "b",
		Kind: ConfigKind,
		RollbackPolicy: RollbackPolicy{
			Kind: PolicyWholeResource,
			Mode: "config",
			Undo: "undo-everything",
		},
		Steps: []Step{{Mode: "config", Command: "x"}},
	}
	plan := b.PlanRollback(nil)
	require.Len(t, plan, 1)
	assert.Equal(t, "undo-everything", plan[0].Command)
}

func TestPolicyNonePlanIsEmpty(t *testing.T) {
	b := Block{
		Name:  "show",
		Kind:  Show,
		Steps: []Step{{Mode: "enable", Command: "show version"}},
	}
	assert.Empty(t, b.PlanRollback([]int{0}))
}
