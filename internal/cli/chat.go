// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat in the plain terminal.
//
// A readline-style loop for environments where the full TUI is
// unwanted (ssh sessions, minimal terminals). Uses the same transcript
// store and stream controller as the TUI, so conversations persist and
// appear in both.

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/device"
	"github.com/jeranaias/tidechat/internal/export"
	"github.com/jeranaias/tidechat/internal/openrouter"
	"github.com/jeranaias/tidechat/internal/storage"
	"github.com/jeranaias/tidechat/internal/stream"
	"github.com/jeranaias/tidechat/internal/transcript"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputReader wraps liner with persistent history.
type inputReader struct {
	line        *liner.State
	historyFile string
}

func newInputReader() *inputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	r := &inputReader{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *inputReader) Read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *inputReader) Close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the terminal REPL.
func HandleChat(args Args) {
	if err := runChat(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

func runChat(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if args.Model != "" {
		cfg.API.Model = args.Model
	}

	client := cfg.NewClient()
	if !client.IsConfigured() {
		return fmt.Errorf("no API key configured (set TIDECHAT_API_KEY)")
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	convDir := filepath.Join(dataDir, "conversations")
	backend, err := storage.NewConversationStoreWithDir(convDir)
	if err != nil {
		return err
	}
	store, err := transcript.NewStoreWithBackend(backend)
	if err != nil {
		return err
	}

	done := make(chan stream.Result, 1)
	controller := stream.NewController(client, store).
		OnFragment(func(conversationID, messageID, fragment string) {
			fmt.Print(fragment)
		}).
		OnComplete(func(result stream.Result) {
			done <- result
		})
	if cfg.Chat.DeviceContext {
		controller.WithDeviceContext(device.Snapshot)
	}

	// Fresh conversation per REPL session.
	conv := store.NewConversation()

	reader := newInputReader()
	defer reader.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			controller.Cancel()
		}
	}()

	if !args.Quiet {
		fmt.Println(labelStyle.Render("tidechat " + Version))
		fmt.Println(mutedStyle.Render("Model: " + cfg.API.Model))
		fmt.Println(mutedStyle.Render("Type /help for commands, /quit to exit."))
		fmt.Println()
	}

	for {
		input, err := reader.Read(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF ends the session.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := runReplCommand(input, client, cfg, store, controller, done, conv.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		fmt.Print(labelStyle.Render("tide> "))
		if _, err := controller.StartTurn(conv.ID, input); err != nil {
			fmt.Println()
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			continue
		}
		awaitResult(done)
	}
}

// awaitResult blocks until the in-flight session finishes and reports
// its outcome.
func awaitResult(done <-chan stream.Result) {
	result := <-done
	fmt.Println()
	switch result.Outcome {
	case stream.OutcomeCancelled:
		fmt.Println(warningStyle.Render("[Cancelled]"))
	case stream.OutcomeFailed:
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), result.Err)
		}
	}
	fmt.Println()
}

// runReplCommand handles the REPL's slash commands. Returns true when
// the session should end.
func runReplCommand(input string, client *openrouter.Client, cfg *config.Config, store *transcript.Store, controller *stream.Controller, done <-chan stream.Result, convID string) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help", "/?":
		fmt.Println(`Commands:
  /new             Start a fresh conversation
  /delete          Remove the newest message
  /retry           Regenerate the last reply
  /continue        Ask the model to keep going
  /export [fmt]    Export this conversation (markdown, html, json)
  /model [name]    Show or switch the model
  /quit, /exit     Leave`)
		return false, nil

	case "/quit", "/exit", "/q":
		return true, nil

	case "/new":
		store.Clear(convID)
		fmt.Println(mutedStyle.Render("Conversation cleared."))
		return false, nil

	case "/delete":
		conv := store.Get(convID)
		if conv == nil {
			return false, fmt.Errorf("no conversation")
		}
		visible := conv.VisibleMessages()
		if len(visible) == 0 {
			return false, fmt.Errorf("nothing to delete")
		}
		store.DeleteMessage(convID, visible[len(visible)-1].ID)
		fmt.Println(mutedStyle.Render("Removed the newest message."))
		return false, nil

	case "/retry":
		fmt.Print(labelStyle.Render("tide> "))
		if _, err := controller.Retry(convID); err != nil {
			fmt.Println()
			return false, err
		}
		awaitResult(done)
		return false, nil

	case "/continue":
		conv := store.Get(convID)
		if conv == nil {
			return false, fmt.Errorf("no conversation")
		}
		last := conv.GetLastAssistantMessage()
		if last == nil {
			return false, fmt.Errorf("nothing to continue")
		}
		fmt.Print(labelStyle.Render("tide> "))
		if err := controller.Continue(convID, last.ID); err != nil {
			fmt.Println()
			return false, err
		}
		awaitResult(done)
		return false, nil

	case "/export":
		format := "markdown"
		if len(parts) > 1 {
			format = parts[1]
		}
		conv := store.Get(convID)
		if conv == nil || conv.IsEmpty() {
			return false, fmt.Errorf("nothing to export")
		}
		path, err := export.Export(conv, format, export.DefaultOptions())
		if err != nil {
			return false, err
		}
		fmt.Println(mutedStyle.Render("Exported to " + path))
		return false, nil

	case "/model":
		if len(parts) > 1 {
			cfg.API.Model = parts[1]
			client.WithModel(parts[1])
			fmt.Println(mutedStyle.Render("Model set to " + parts[1] + " (this session)"))
		} else {
			fmt.Println(mutedStyle.Render("Model: " + cfg.API.Model))
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s", cmd)
	}
}
