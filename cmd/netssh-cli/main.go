// Command netssh-cli drives interactive SSH command execution and
// templated configuration workflows against network devices.
//
// Password can be provided via:
//   - -pass flag (least secure, visible in process list)
//   - NETSSH_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// Usage:
//
//	netssh-cli diagnose -template cisco
//	netssh-cli apply -template cisco -host 10.0.0.1 -user admin -name firewall-rule [-live]
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/pool"
	"github.com/mvandenburg/netssh/security"
	"github.com/mvandenburg/netssh/template"
	"github.com/mvandenburg/netssh/txn"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "diagnose":
		runDiagnose(os.Args[2:])
	case "apply":
		runApply(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: netssh-cli <diagnose|apply> [flags]")
}

func runDiagnose(args []string) {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	templateName := fs.String("template", "", "template name (omit to diagnose every built-in template)")
	_ = fs.Parse(args)

	if *templateName == "" {
		out, err := template.DiagnoseAllJSON()
		fatalIf(err)
		fmt.Println(out)
		return
	}
	out, err := template.DiagnoseJSON(*templateName)
	fatalIf(err)
	fmt.Println(out)
}

// firewallRuleStep is one entry in a -rules YAML document passed to
// the apply subcommand's firewall workflow.
type firewallRuleStep struct {
	Command string `yaml:"command"`
	Mode    string `yaml:"mode"`
}

func runApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	templateName := fs.String("template", "", "template name (e.g. cisco)")
	host := fs.String("host", "", "device address")
	port := fs.Int("port", 22, "SSH port")
	user := fs.String("user", "", "SSH username")
	pass := fs.String("pass", "", "SSH password (prefer NETSSH_PASSWORD)")
	enablePass := fs.String("enable-pass", "", "enable/privileged-mode password, if the device needs one")
	knownHosts := fs.String("known-hosts", "", "path to a known_hosts file (defaults to ~/.ssh/known_hosts; not used with -insecure)")
	insecure := fs.Bool("insecure", false, "skip host key verification (testing only)")
	rulesPath := fs.String("rules", "", "path to a YAML file listing {command, mode} steps")
	blockName := fs.String("name", "firewall-rule", "transaction block name")
	live := fs.Bool("live", false, "execute against the device instead of printing the plan")
	poolConfigPath := fs.String("pool-config", "", "path to a pool YAML config (capacity, idle_ttl_seconds, recorder_level)")
	_ = fs.Parse(args)

	if *templateName == "" || *host == "" || *user == "" || *rulesPath == "" {
		fmt.Fprintln(os.Stderr, "apply requires -template, -host, -user and -rules")
		os.Exit(2)
	}

	data, err := os.ReadFile(*rulesPath)
	fatalIf(err)
	var steps []firewallRuleStep
	fatalIf(yaml.Unmarshal(data, &steps))

	commands := make([]string, len(steps))
	for i, st := range steps {
		commands[i] = st.Command
	}

	block, err := template.BuildTxBlock(*templateName, *blockName, "config", commands, nil, nil)
	fatalIf(err)
	workflow := txn.Workflow{Name: *blockName + "-workflow", Blocks: []txn.Block{block}}

	if !*live {
		printPlan(workflow)
		return
	}

	handler, err := template.ByName(*templateName)
	fatalIf(err)

	secLevel := security.Balanced
	if *insecure {
		secLevel = security.LegacyCompatible
	}
	opts := security.DefaultOptions()
	opts.Level = secLevel

	password := getPassword(*pass)
	var enable *string
	if *enablePass != "" {
		enable = enablePass
	}

	var p *pool.Pool
	if *poolConfigPath != "" {
		poolCfg, err := pool.LoadConfig(*poolConfigPath)
		fatalIf(err)
		p = pool.NewWithConfig(poolCfg)
	} else {
		p = pool.New()
	}
	defer p.Close()

	result, err := p.ExecuteTxWorkflow(pool.Params{
		User:           *user,
		Host:           *host,
		Port:           *port,
		Password:       password,
		EnablePassword: enable,
		Handler:        handler,
		Security:       opts,
		KnownHostsPath: *knownHosts,
	}, workflow, nil)
	fatalIf(err)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	fatalIf(enc.Encode(result))
	if !result.Committed {
		os.Exit(1)
	}
}

func printPlan(workflow txn.Workflow) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(workflow)
}

func fatalIf(err error) {
	if err == nil {
		return
	}
	var inv *neterr.InvalidTransaction
	if ok := asInvalidTransaction(err, &inv); ok {
		fmt.Fprintln(os.Stderr, "invalid transaction:", inv.Error())
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func asInvalidTransaction(err error, target **neterr.InvalidTransaction) bool {
	if inv, ok := err.(*neterr.InvalidTransaction); ok {
		*target = inv
		return true
	}
	return false
}

// getPassword returns password from flag, env var, or prompts for it.
func getPassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPass := os.Getenv("NETSSH_PASSWORD"); envPass != "" {
		return envPass
	}

	fmt.Fprint(os.Stderr, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return string(passBytes)
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
