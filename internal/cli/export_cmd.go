// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/export"
	"github.com/jeranaias/tidechat/internal/storage"
	"github.com/jeranaias/tidechat/internal/transcript"
)

// HandleExport exports the most recent conversation without entering
// the TUI.
func HandleExport(args Args) {
	format := args.Subcommand
	if format == "" {
		format = "markdown"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	convDir := filepath.Join(dataDir, "conversations")
	backend, err := storage.NewConversationStoreWithDir(convDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	store, err := transcript.NewStoreWithBackend(backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	conv := store.Active()
	if conv == nil || conv.IsEmpty() {
		fmt.Fprintln(os.Stderr, warningStyle.Render("Nothing to export."))
		os.Exit(1)
	}

	path, err := export.Export(conv, format, export.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	fmt.Println("Exported to " + path)
}
