// tidechat - a streaming chat client for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/cli"
	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/device"
	"github.com/jeranaias/tidechat/internal/history"
	"github.com/jeranaias/tidechat/internal/storage"
	"github.com/jeranaias/tidechat/internal/stream"
	"github.com/jeranaias/tidechat/internal/transcript"
	"github.com/jeranaias/tidechat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdHistory:
		cli.HandleHistory(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp(args)
	}
}

// runTUI wires the full application and hands control to bubbletea.
func runTUI(args cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if args.Model != "" {
		cfg.API.Model = args.Model
	}

	client := cfg.NewClient()
	if !client.IsConfigured() {
		fmt.Fprintln(os.Stderr, "No API key configured.")
		fmt.Fprintln(os.Stderr, "Set TIDECHAT_API_KEY or run: tidechat config set api.key <key>")
		os.Exit(1)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating data directory: %v\n", err)
		os.Exit(1)
	}
	convDir := filepath.Join(dataDir, "conversations")
	backend, err := storage.NewConversationStoreWithDir(convDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening conversation store: %v\n", err)
		os.Exit(1)
	}
	store, err := transcript.NewStoreWithBackend(backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading conversations: %v\n", err)
		os.Exit(1)
	}

	controller := stream.NewController(client, store)
	if cfg.Chat.DeviceContext {
		controller.WithDeviceContext(device.Snapshot)
	}

	// The search index is optional; the chat works without it.
	var index *history.Index
	if idx, err := history.NewIndex(history.DefaultConfig(convDir)); err == nil {
		index = idx
		defer idx.Close()
		go func() { _ = idx.Reindex(context.Background()) }()
	} else if args.Verbose {
		fmt.Fprintf(os.Stderr, "History index unavailable: %v\n", err)
	}

	m := chat.New(cfg, store, controller, index)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	m.BridgeStream(p.Send)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
