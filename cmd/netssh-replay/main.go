// Command netssh-replay normalizes recorded session transcripts and
// replays a command script against them without a live connection.
//
// Usage:
//
//	netssh-replay normalize -in session.jsonl -out normalized.jsonl [-keep-raw] [-keep-prompt] [-drop-state]
//	netssh-replay replay -in session.jsonl -script commands.txt [-mode config]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mvandenburg/netssh/recording"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "normalize":
		runNormalize(os.Args[2:])
	case "replay":
		runReplay(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: netssh-replay <normalize|replay> [flags]")
}

func runNormalize(args []string) {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	in := fs.String("in", "", "input JSONL transcript")
	out := fs.String("out", "", "output JSONL path (defaults to stdout)")
	keepRaw := fs.Bool("keep-raw", false, "keep RawChunk entries")
	keepPrompt := fs.Bool("keep-prompt", false, "keep PromptChanged entries")
	dropState := fs.Bool("drop-state", false, "drop StateChanged entries")
	_ = fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "normalize requires -in")
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	fatalIf(err)

	normalized, err := recording.NormalizeJSONL(string(data), recording.NormalizeOptions{
		KeepRawChunks:     *keepRaw,
		KeepPromptChanged: *keepPrompt,
		DropStateChanged:  *dropState,
	})
	fatalIf(err)

	if *out == "" {
		fmt.Print(normalized)
		return
	}
	fatalIf(os.WriteFile(*out, []byte(normalized), 0o644))
}

func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	in := fs.String("in", "", "input JSONL transcript")
	scriptPath := fs.String("script", "", "path to a file with one command per line")
	mode := fs.String("mode", "", "restrict matches to this mode (empty matches any)")
	_ = fs.Parse(args)

	if *in == "" || *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "replay requires -in and -script")
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	fatalIf(err)
	replayer, err := recording.ReplayerFromJSONL(string(data))
	fatalIf(err)

	script, err := readLines(*scriptPath)
	fatalIf(err)

	entries, err := replayer.ReplayScript(script, *mode)
	if err != nil {
		for _, e := range entries {
			printEntry(e)
		}
		fmt.Fprintln(os.Stderr, "replay stopped:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		printEntry(e)
	}
}

func printEntry(e recording.Entry) {
	fmt.Printf("$ %s\n%s\n", e.Command, e.Content)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func fatalIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
