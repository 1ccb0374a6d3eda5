package template

import (
	"strings"
	"time"

	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/txn"
)

var showPrefixes = []string{"show ", "display ", "ping ", "traceroute "}

// Classify reports whether command is a Show command: it begins,
// case-insensitively, with one of "show ", "display ", "ping ",
// "traceroute ". Anything else is Config.
//
// Grounded on original_source/src/templates.rs's implicit
// classification (no standalone function exists there; spec.md §4.4's
// table is the source of truth) together with examples/
// firewall_workflow.rs's usage.
func Classify(command string) txn.CommandBlockKind {
	lower := strings.ToLower(command)
	for _, p := range showPrefixes {
		if strings.HasPrefix(lower, p) {
			return txn.Show
		}
	}
	return txn.ConfigKind
}

// inferRollback synthesizes a per-step rollback command for one Config
// command, per spec.md §4.4's per-vendor table. ok is false when no
// rule applies (the command already carries the "undone" prefix the
// template uses, or no rule exists for this template).
func inferRollback(templateName, command string) (string, bool) {
	trimmed := strings.TrimSpace(command)
	switch strings.ToLower(templateName) {
	case "juniper":
		switch {
		case strings.HasPrefix(trimmed, "set "):
			return "delete " + strings.TrimPrefix(trimmed, "set "), true
		case strings.HasPrefix(trimmed, "delete "):
			return "", false
		case strings.HasPrefix(trimmed, "activate "):
			return "deactivate " + strings.TrimPrefix(trimmed, "activate "), true
		case strings.HasPrefix(trimmed, "deactivate "):
			return "activate " + strings.TrimPrefix(trimmed, "deactivate "), true
		default:
			return "", false
		}
	case "huawei", "h3c":
		if strings.HasPrefix(trimmed, "undo ") {
			return "", false
		}
		return "undo " + trimmed, true
	default:
		if strings.HasPrefix(trimmed, "no ") {
			return "", false
		}
		return "no " + trimmed, true
	}
}

// BuildTxBlock classifies commands and produces a validated TxBlock.
//
// All commands are classified first; if they disagree, this fails
// with *neterr.InvalidTransaction rather than silently building a
// Config block and attempting rollback inference on Show commands
// (original_source/src/templates.rs's caller does the latter — flagged
// in spec.md §9 as a latent bug, deliberately not reproduced here).
//
// An all-Show command list produces a Show block with PolicyNone.
// Otherwise a Config block is produced: resourceRollback, when
// non-empty, selects WholeResource; otherwise PerStep with rollback
// commands inferred per templateName's vendor rules. If inference
// yields no rollback for any step, this fails with
// *neterr.InvalidTransaction.
func BuildTxBlock(templateName, name string, mode string, commands []string, stepTimeout *time.Duration, resourceRollback *string) (txn.Block, error) {
	if len(commands) == 0 {
		return txn.Block{}, &neterr.InvalidTransaction{Msg: "block \"" + name + "\" has no commands"}
	}

	kind := Classify(commands[0])
	for _, c := range commands[1:] {
		if Classify(c) != kind {
			return txn.Block{}, &neterr.InvalidTransaction{
				Msg: "block \"" + name + "\" mixes Show and Config commands (\"" + commands[0] + "\" vs \"" + c + "\"); classify per block uniformly or split the command list",
			}
		}
	}

	var timeout time.Duration
	if stepTimeout != nil {
		timeout = *stepTimeout
	}

	if kind == txn.Show {
		steps := make([]txn.Step, len(commands))
		for i, c := range commands {
			steps[i] = txn.Step{Mode: mode, Command: c, Timeout: timeout}
		}
		b := txn.Block{Name: name, Kind: txn.Show, RollbackPolicy: txn.RollbackPolicy{Kind: txn.PolicyNone}, Steps: steps}
		if err := b.Validate(); err != nil {
			return txn.Block{}, err
		}
		return b, nil
	}

	steps := make([]txn.Step, len(commands))
	if resourceRollback != nil && *resourceRollback != "" {
		for i, c := range commands {
			steps[i] = txn.Step{Mode: mode, Command: c, Timeout: timeout}
		}
		b := txn.Block{
			Name: name, Kind: txn.ConfigKind,
			RollbackPolicy: txn.RollbackPolicy{Kind: txn.PolicyWholeResource, Mode: mode, Undo: *resourceRollback, Timeout: timeout},
			Steps:          steps,
		}
		if err := b.Validate(); err != nil {
			return txn.Block{}, err
		}
		return b, nil
	}

	for i, c := range commands {
		rb, ok := inferRollback(templateName, c)
		if !ok {
			return txn.Block{}, &neterr.InvalidTransaction{Msg: "cannot infer rollback command for \"" + c + "\" on template \"" + templateName + "\""}
		}
		steps[i] = txn.Step{Mode: mode, Command: c, Timeout: timeout, RollbackCommand: rb}
	}
	b := txn.Block{
		Name: name, Kind: txn.ConfigKind,
		RollbackPolicy: txn.RollbackPolicy{Kind: txn.PolicyPerStep},
		Steps:          steps,
	}
	if err := b.Validate(); err != nil {
		return txn.Block{}, err
	}
	return b, nil
}
