// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/history"
)

// HandleHistory lists recent conversations or searches the index.
func HandleHistory(args Args) {
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

	hcfg := history.DefaultConfig(convDir)
	hcfg.EnableWatch = false
	idx, err := history.NewIndex(hcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	defer idx.Close()

	if err := idx.Reindex(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	if args.Query == "" {
		listRecent(idx)
		return
	}
	searchIndex(idx, args.Query)
}

func listRecent(idx *history.Index) {
	convs, err := idx.ListRecent(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	if len(convs) == 0 {
		fmt.Println(mutedStyle.Render("No conversations yet."))
		return
	}

	for _, conv := range convs {
		fmt.Printf("%s  %s\n",
			labelStyle.Render(conv.Title),
			mutedStyle.Render(conv.UpdatedAt.Format("2006-01-02 15:04")))
		fmt.Printf("  %s\n", mutedStyle.Render(fmt.Sprintf("%s  %d messages", conv.ID, conv.MessageCount)))
	}
}

func searchIndex(idx *history.Index, query string) {
	results, err := idx.Search(query, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println(mutedStyle.Render("No matches for " + query))
		return
	}

	for _, r := range results {
		fmt.Printf("%s %s\n", labelStyle.Render(r.Title), mutedStyle.Render("("+r.Role+")"))
		fmt.Printf("  %s\n", r.Snippet)
		fmt.Printf("  %s\n", mutedStyle.Render(r.ConversationID))
	}
}
