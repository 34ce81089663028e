// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command.
//
// Sends one question and streams the reply to stdout. When stdout is a
// terminal the final answer is re-rendered as markdown; piped output
// stays raw.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/device"
	"github.com/jeranaias/tidechat/internal/files"
	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/openrouter"
	"github.com/jeranaias/tidechat/internal/prompt"
)

// HandleAsk runs the ask command.
func HandleAsk(args Args) {
	if strings.TrimSpace(args.Query) == "" && args.File == "" {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" ask needs a question")
		fmt.Fprintln(os.Stderr, "Usage: tidechat ask \"question\" [--file path]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
	if args.Model != "" {
		cfg.API.Model = args.Model
	}

	client := cfg.NewClient()
	if !client.IsConfigured() {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" no API key configured")
		fmt.Fprintln(os.Stderr, "Set TIDECHAT_API_KEY or run: tidechat config set api.key <key>")
		os.Exit(1)
	}

	messages, err := buildAskMessages(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	var answer strings.Builder
	render := IsStdoutTTY() && !args.NoColor

	err = client.ChatStream(ctx, messages, func(fragment string) {
		answer.WriteString(fragment)
		fmt.Print(fragment)
	})
	fmt.Println()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render("[Cancelled]"))
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}

	if render && strings.Contains(answer.String(), "```") {
		// Replace the raw stream with the rendered answer for readability.
		fmt.Println(mutedStyle.Render("---"))
		fmt.Print(renderMarkdown(answer.String()))
	}
}

// buildAskMessages assembles the outbound list for a one-shot question,
// using the same injection rules as the chat views.
func buildAskMessages(cfg *config.Config, args Args) ([]openrouter.ChatMessage, error) {
	var transcript []*model.Message

	if cfg.Chat.DeviceContext {
		transcript = append(transcript, model.NewControlMessage(model.KindDeviceContext, device.Snapshot()))
	}

	query := args.Query
	if args.File != "" {
		sum, err := files.Summarize(args.File)
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, model.NewControlMessage(model.KindContextNote, sum.Message))
		if query == "" {
			query = "Describe the attached file."
		}
	}

	transcript = append(transcript, model.NewUserMessage(query))
	return prompt.BuildMessages(transcript), nil
}
