// Package template supplies the built-in per-vendor FSM parameter
// sets (prompt/sys-prompt/write patterns, edges, error/ignore-error
// patterns) plus metadata, diagnostics export, and the command
// classification / rollback-inference logic used to build TxBlocks
// from a flat command list.
//
// Grounded on original_source/src/templates.rs.
package template

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/mvandenburg/netssh/fsm"
	"github.com/mvandenburg/netssh/neterr"
)

// Capability tags describing what a template supports.
type Capability string

const (
	LoginMode        Capability = "login_mode"
	EnableMode       Capability = "enable_mode"
	ConfigMode       Capability = "config_mode"
	SysContext       Capability = "sys_context"
	InteractiveInput Capability = "interactive_input"
)

// Metadata describes a built-in template.
type Metadata struct {
	Name         string       `json:"name"`
	Vendor       string       `json:"vendor"`
	Family       string       `json:"family"`
	Version      string       `json:"template_version"`
	Capabilities []Capability `json:"capabilities"`
}

// Builtin names the six built-in templates, in catalogue order.
var Builtin = []string{"cisco", "huawei", "h3c", "hillstone", "juniper", "array"}

var metadataByName = map[string]Metadata{
	"cisco": {
		Name: "cisco", Vendor: "Cisco", Family: "IOS/IOS-XE", Version: "1.0.0",
		Capabilities: []Capability{LoginMode, EnableMode, ConfigMode, InteractiveInput},
	},
	"huawei": {
		Name: "huawei", Vendor: "Huawei", Family: "VRP", Version: "1.0.0",
		Capabilities: []Capability{EnableMode, ConfigMode, InteractiveInput},
	},
	"h3c": {
		Name: "h3c", Vendor: "H3C", Family: "Comware", Version: "1.0.0",
		Capabilities: []Capability{EnableMode, ConfigMode},
	},
	"hillstone": {
		Name: "hillstone", Vendor: "Hillstone", Family: "SG", Version: "1.0.0",
		Capabilities: []Capability{EnableMode, ConfigMode, InteractiveInput},
	},
	"juniper": {
		Name: "juniper", Vendor: "Juniper", Family: "JunOS", Version: "1.0.0",
		Capabilities: []Capability{EnableMode, ConfigMode, InteractiveInput},
	},
	"array": {
		Name: "array", Vendor: "Array Networks", Family: "APV", Version: "1.0.0",
		Capabilities: []Capability{LoginMode, EnableMode, ConfigMode, SysContext, InteractiveInput},
	},
}

// Available returns the built-in template names.
func Available() []string {
	out := make([]string, len(Builtin))
	copy(out, Builtin)
	return out
}

// Catalog returns metadata for every built-in template.
func Catalog() []Metadata {
	out := make([]Metadata, 0, len(Builtin))
	for _, n := range Builtin {
		out = append(out, metadataByName[n])
	}
	return out
}

// LookupMetadata returns metadata for one template, case-insensitive.
func LookupMetadata(name string) (Metadata, error) {
	key := strings.ToLower(name)
	m, ok := metadataByName[key]
	if !ok {
		return Metadata{}, &neterr.TemplateNotFound{Name: name}
	}
	return m, nil
}

// builders maps a lowercase template name to its fsm.Handler factory.
var builders = map[string]func() (*fsm.Handler, error){
	"cisco":     Cisco,
	"huawei":    Huawei,
	"h3c":       H3C,
	"hillstone": Hillstone,
	"juniper":   Juniper,
	"array":     Array,
}

// ByName builds a built-in template's handler by name, case-insensitive.
func ByName(name string) (*fsm.Handler, error) {
	b, ok := builders[strings.ToLower(name)]
	if !ok {
		return nil, &neterr.TemplateNotFound{Name: name}
	}
	return b()
}

// Diagnose builds a template and runs its graph diagnostics.
func Diagnose(name string) (fsm.Diagnostics, error) {
	h, err := ByName(name)
	if err != nil {
		return fsm.Diagnostics{}, err
	}
	return h.Diagnose(), nil
}

// DiagnoseJSON builds a template and renders its diagnostics as
// pretty JSON.
func DiagnoseJSON(name string) (string, error) {
	d, err := Diagnose(name)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", &neterr.InternalServerError{Msg: "encode diagnostics json: " + err.Error()}
	}
	return string(b), nil
}

// DiagnoseAllJSON renders diagnostics for every built-in template,
// keyed by name, as pretty JSON.
func DiagnoseAllJSON() (string, error) {
	reports := map[string]fsm.Diagnostics{}
	for _, name := range Builtin {
		d, err := Diagnose(name)
		if err != nil {
			return "", err
		}
		reports[name] = d
	}
	names := make([]string, 0, len(reports))
	for n := range reports {
		names = append(names, n)
	}
	sort.Strings(names)
	// encoding/json sorts map keys itself, so the output is in name
	// order; the sorted name slice above is not used further.
	b, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", &neterr.InternalServerError{Msg: "encode diagnostics json: " + err.Error()}
	}
	return string(b), nil
}
