// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMAND ROUTING
// =============================================================================

// Command identifies a top-level CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdHistory
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	NoColor bool

	// Command-specific
	Query      string
	File       string
	Subcommand string

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `tidechat - a streaming chat client for the terminal

Tidechat talks to OpenRouter and streams replies token by token.

Usage:
  tidechat                   Start the chat TUI (default)
  tidechat ask "question"    Ask a single question and print the answer
  tidechat chat              Interactive chat in the plain terminal
  tidechat history [query]   List or search indexed conversations
  tidechat export [format]   Export the latest conversation
  tidechat config [show|get|set]  Configuration
  tidechat version           Show version
  tidechat help              Show this help

Flags:
  -m, --model NAME   Use a specific model for this run
  -f, --file PATH    Attach a file's content to the question (ask)
  -q, --quiet        Minimal output
  --no-color         Disable colored output

Configuration lives in ~/.config/tidechat/config.toml. Set
TIDECHAT_API_KEY (or api.key in the config) before first use.`

// Parse reads os.Args and returns the selected command with its
// arguments.
func Parse() (Command, Args) {
	raw := os.Args[1:]

	remaining, args := parseGlobalFlags(raw)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "history", "search":
		if len(remaining) > 0 {
			args.Query = strings.Join(remaining, " ")
		}
		return CmdHistory, args

	case "export":
		if len(remaining) > 0 {
			args.Subcommand = remaining[0]
		}
		return CmdExport, args

	case "config":
		if len(remaining) > 0 {
			args.Subcommand = remaining[0]
			args.Raw = remaining[1:]
		}
		return CmdConfig, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		// Unknown word: treat the whole line as an ask query.
		args.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, args
	}
}

// parseGlobalFlags strips flags that apply to every command.
func parseGlobalFlags(raw []string) ([]string, Args) {
	args := Args{}
	remaining := make([]string, 0, len(raw))

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--no-color":
			args.NoColor = true
		case "-m", "--model":
			if i+1 < len(raw) {
				args.Model = raw[i+1]
				i++
			}
		default:
			remaining = append(remaining, raw[i])
		}
		i++
	}

	return remaining, args
}

// parseAskArgs extracts ask's flags; everything else joins the query.
func parseAskArgs(args *Args, raw []string) {
	var queryParts []string

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case "-f", "--file":
			if i+1 < len(raw) {
				args.File = raw[i+1]
				i++
			}
		default:
			queryParts = append(queryParts, raw[i])
		}
		i++
	}

	args.Query = strings.Join(queryParts, " ")
}

// HandleHelp prints usage.
func HandleHelp(args Args) {
	fmt.Println(usageText)
}

// HandleVersion prints build information.
func HandleVersion(args Args) {
	fmt.Printf("tidechat %s\n", Version)
	if args.Verbose {
		fmt.Printf("  commit: %s\n  built:  %s\n", GitCommit, BuildDate)
	}
}
