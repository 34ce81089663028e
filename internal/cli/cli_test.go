// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/tidechat/internal/config"
)

func parseArgs(t *testing.T, argv ...string) (Command, Args) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"tidechat"}, argv...)
	defer func() { os.Args = old }()
	return Parse()
}

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := parseArgs(t)
	if cmd != CmdTUI {
		t.Errorf("cmd = %d, want TUI", cmd)
	}
}

func TestParseAsk(t *testing.T) {
	cmd, args := parseArgs(t, "ask", "what", "is", "a", "tide")
	if cmd != CmdAsk {
		t.Fatalf("cmd = %d, want ask", cmd)
	}
	if args.Query != "what is a tide" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseAskWithFile(t *testing.T) {
	cmd, args := parseArgs(t, "ask", "--file", "notes.txt", "summarize")
	if cmd != CmdAsk {
		t.Fatalf("cmd = %d", cmd)
	}
	if args.File != "notes.txt" {
		t.Errorf("file = %q", args.File)
	}
	if args.Query != "summarize" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseGlobalModelFlag(t *testing.T) {
	cmd, args := parseArgs(t, "-m", "some/model", "chat")
	if cmd != CmdChat {
		t.Fatalf("cmd = %d, want chat", cmd)
	}
	if args.Model != "some/model" {
		t.Errorf("model = %q", args.Model)
	}
}

func TestParseConfigSet(t *testing.T) {
	cmd, args := parseArgs(t, "config", "set", "ui.theme", "light")
	if cmd != CmdConfig {
		t.Fatalf("cmd = %d", cmd)
	}
	if args.Subcommand != "set" {
		t.Errorf("subcommand = %q", args.Subcommand)
	}
	if len(args.Raw) != 2 || args.Raw[0] != "ui.theme" || args.Raw[1] != "light" {
		t.Errorf("raw = %v", args.Raw)
	}
}

func TestParseHistoryQuery(t *testing.T) {
	cmd, args := parseArgs(t, "history", "rip", "currents")
	if cmd != CmdHistory {
		t.Fatalf("cmd = %d", cmd)
	}
	if args.Query != "rip currents" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseBareQuestionFallsThroughToAsk(t *testing.T) {
	cmd, args := parseArgs(t, "why", "is", "the", "sea", "salty")
	if cmd != CmdAsk {
		t.Fatalf("cmd = %d, want ask", cmd)
	}
	if args.Query != "why is the sea salty" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseVersion(t *testing.T) {
	cmd, _ := parseArgs(t, "version")
	if cmd != CmdVersion {
		t.Errorf("cmd = %d, want version", cmd)
	}
}

func TestBuildAskMessagesIncludesQuery(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.DeviceContext = false

	msgs, err := buildAskMessages(cfg, Args{Query: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Errorf("first message role = %q, want the persona", msgs[0].Role)
	}
	if msgs[1].Content != "hello" {
		t.Errorf("content = %q", msgs[1].Content)
	}
}

func TestBuildAskMessagesDeviceContextFirst(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.DeviceContext = true

	msgs, err := buildAskMessages(cfg, Args{Query: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	if !strings.Contains(msgs[1].Content, "device status") {
		t.Errorf("second message should carry the device snapshot, got %q", msgs[1].Content)
	}
}

func TestBuildAskMessagesMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.DeviceContext = false

	_, err := buildAskMessages(cfg, Args{Query: "x", File: "/does/not/exist"})
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
