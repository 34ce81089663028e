// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// runHandler executes a handler's tea.Cmd and returns the resulting message.
func runHandler(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("handler returned nil command")
	}
	return cmd()
}

func TestParseNonCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("hello there")
	if result.IsCommand {
		t.Error("plain text should not be a command")
	}
}

func TestParseSimpleCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/new")
	if !result.IsCommand {
		t.Fatal("expected command")
	}
	if result.CommandName != "/new" {
		t.Errorf("name = %q, want /new", result.CommandName)
	}
	if result.Command == nil {
		t.Fatal("command should resolve")
	}
	if result.Command.Name != "/new" {
		t.Errorf("resolved command = %q, want /new", result.Command.Name)
	}
}

func TestParseCommandWithArgs(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/export json")
	if !result.IsCommand {
		t.Fatal("expected command")
	}
	if !reflect.DeepEqual(result.Args, []string{"json"}) {
		t.Errorf("args = %v, want [json]", result.Args)
	}
	if result.RawArgs != "json" {
		t.Errorf("raw args = %q, want json", result.RawArgs)
	}
}

func TestParseQuotedArgs(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse(`/rename "Trip planning notes"`)
	if !reflect.DeepEqual(result.Args, []string{"Trip planning notes"}) {
		t.Errorf("args = %v, want one quoted token", result.Args)
	}
}

func TestParseAliasResolves(t *testing.T) {
	p := NewParser(NewRegistry())

	for alias, want := range map[string]string{
		"/h":      "/help",
		"/q":      "/quit",
		"/n":      "/new",
		"/r":      "/retry",
		"/resume": "/load",
		"/file":   "/upload",
	} {
		result := p.Parse(alias)
		if result.Command == nil {
			t.Errorf("alias %s did not resolve", alias)
			continue
		}
		if result.Command.Name != want {
			t.Errorf("alias %s resolved to %s, want %s", alias, result.Command.Name, want)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/frobnicate")
	if !result.IsCommand {
		t.Error("should still be flagged as a command attempt")
	}
	if result.Command != nil {
		t.Error("unknown command should not resolve")
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/export json", []string{"/export", "json"}},
		{`/rename "two words"`, []string{"/rename", "two words"}},
		{`/rename 'single quoted'`, []string{"/rename", "single quoted"}},
		{`/upload "path with \"quote\""`, []string{"/upload", `path with "quote"`}},
		{"  /help  ", []string{"/help"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := splitCommandLine(strings.TrimSpace(tt.input))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitCommandLine(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidateArgsRequired(t *testing.T) {
	r := NewRegistry()
	cmd := r.Get("/rename")

	if err := ValidateArgs(cmd, nil); err == nil {
		t.Error("missing required argument should fail validation")
	}
	if err := ValidateArgs(cmd, []string{"New title"}); err != nil {
		t.Errorf("valid args rejected: %v", err)
	}
}

func TestValidateArgsEnum(t *testing.T) {
	r := NewRegistry()
	cmd := r.Get("/export")

	if err := ValidateArgs(cmd, []string{"json"}); err != nil {
		t.Errorf("json should be accepted: %v", err)
	}
	if err := ValidateArgs(cmd, []string{"pdf"}); err == nil {
		t.Error("pdf should be rejected")
	}
}

func TestHandleExportFormats(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "markdown"},
		{[]string{"md"}, "markdown"},
		{[]string{"JSON"}, "json"},
		{[]string{"htm"}, "html"},
	}

	for _, tt := range tests {
		msg := runHandler(t, HandleExport(nil, tt.args))
		export, ok := msg.(ExportConversationMsg)
		if !ok {
			t.Fatalf("args %v: got %T, want ExportConversationMsg", tt.args, msg)
		}
		if export.Format != tt.want {
			t.Errorf("args %v: format = %q, want %q", tt.args, export.Format, tt.want)
		}
	}
}

func TestHandleExportInvalidFormat(t *testing.T) {
	msg := runHandler(t, HandleExport(nil, []string{"pdf"}))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Fatalf("got %T, want ErrorMsg", msg)
	}
}

func TestHandleRenameJoinsArgs(t *testing.T) {
	msg := runHandler(t, HandleRename(nil, []string{"Trip", "planning"}))
	rename, ok := msg.(RenameConversationMsg)
	if !ok {
		t.Fatalf("got %T, want RenameConversationMsg", msg)
	}
	if rename.Title != "Trip planning" {
		t.Errorf("title = %q, want 'Trip planning'", rename.Title)
	}
}

func TestHandleRenameMissingTitle(t *testing.T) {
	msg := runHandler(t, HandleRename(nil, nil))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Fatalf("got %T, want ErrorMsg", msg)
	}
}

func TestHandlersEmitExpectedMessages(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*Context, []string) tea.Cmd
		args    []string
		want    tea.Msg
	}{
		{"new", HandleNew, nil, NewConversationMsg{}},
		{"clear", HandleClear, nil, ClearConversationMsg{}},
		{"retry", HandleRetry, nil, RetryMsg{}},
		{"continue", HandleContinue, nil, ContinueMsg{}},
		{"info", HandleInfo, nil, ShowInfoMsg{}},
		{"cmatrix", HandleCmatrix, nil, EasterEggMsg{}},
		{"load", HandleLoad, []string{"conv-1"}, SwitchConversationMsg{ID: "conv-1"}},
		{"upload", HandleUpload, []string{"/tmp/notes.txt"}, UploadFileMsg{Path: "/tmp/notes.txt"}},
		{"model", HandleModel, []string{"some/model"}, ModelSwitchMsg{Model: "some/model"}},
		{"theme", HandleTheme, []string{"Light"}, ThemeMsg{Theme: "light"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := runHandler(t, tt.handler(nil, tt.args))
			if !reflect.DeepEqual(msg, tt.want) {
				t.Errorf("got %#v, want %#v", msg, tt.want)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	msg := runHandler(t, HandleDelete(nil, nil))
	if got, ok := msg.(DeleteConversationMsg); !ok || got.ID != "" {
		t.Errorf("no args should target the active conversation, got %#v", msg)
	}

	msg = runHandler(t, HandleDelete(nil, []string{"conv-42"}))
	if got, ok := msg.(DeleteConversationMsg); !ok || got.ID != "conv-42" {
		t.Errorf("msg = %#v, want DeleteConversationMsg{ID: conv-42}", msg)
	}

	msg = runHandler(t, HandleDelete(nil, []string{"last"}))
	if _, ok := msg.(DeleteLastMessageMsg); !ok {
		t.Errorf("'last' should delete the newest message, got %#v", msg)
	}
}

func TestDeleteRegisteredWithAlias(t *testing.T) {
	r := NewRegistry()
	cmd := r.Get("/delete")
	if cmd == nil {
		t.Fatal("/delete should be registered")
	}
	if r.Get("/del") != cmd {
		t.Error("/del should resolve to /delete")
	}
	if cmd.Category != "Conversation" {
		t.Errorf("category = %q, want Conversation", cmd.Category)
	}
}

func TestHandleSearchMissingQuery(t *testing.T) {
	msg := runHandler(t, HandleSearch(nil, nil))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Fatalf("got %T, want ErrorMsg", msg)
	}
}

func TestRegistryCategories(t *testing.T) {
	r := NewRegistry()

	byCategory := r.ByCategory()
	for _, want := range []string{"Navigation", "Conversation", "Settings"} {
		if len(byCategory[want]) == 0 {
			t.Errorf("category %s has no commands", want)
		}
	}

	// Hidden commands stay out of help.
	for _, cmd := range byCategory["Navigation"] {
		if cmd.Name == "/cmatrix" {
			t.Error("/cmatrix should be hidden from help")
		}
	}
}
