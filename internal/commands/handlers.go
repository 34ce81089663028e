// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct {
	Topic string // Optional category for specific help
}

// ShowInfoMsg triggers the info panel (app details, commands, device status).
type ShowInfoMsg struct{}

// NewConversationMsg starts a fresh conversation.
type NewConversationMsg struct{}

// RenameConversationMsg renames the active conversation.
type RenameConversationMsg struct {
	Title string
}

// ClearConversationMsg clears the active conversation's messages.
type ClearConversationMsg struct{}

// RetryMsg regenerates the reply to the last user message.
type RetryMsg struct{}

// ContinueMsg asks the model to continue the last assistant reply.
type ContinueMsg struct{}

// CopyToClipboardMsg triggers copying the last response to the clipboard.
type CopyToClipboardMsg struct {
	Content string
}

// CopyCompleteMsg indicates copy completion.
type CopyCompleteMsg struct {
	Success bool
	Error   error
}

// UploadFileMsg attaches a file to the conversation as a context note.
type UploadFileMsg struct {
	Path string
}

// ExportConversationMsg triggers exporting the conversation.
type ExportConversationMsg struct {
	Format string // "markdown", "json", "html"
}

// ExportCompleteMsg indicates export completion.
type ExportCompleteMsg struct {
	Path  string
	Error error
}

// ConversationListMsg contains the list of saved conversations.
type ConversationListMsg struct {
	Conversations []ConversationInfo
	Error         error
}

// ConversationInfo contains metadata about a saved conversation.
type ConversationInfo struct {
	ID        string
	Title     string
	Model     string
	Preview   string
	UpdatedAt string
	MsgCount  int
}

// SwitchConversationMsg switches the active conversation.
type SwitchConversationMsg struct {
	ID string
}

// DeleteConversationMsg removes a conversation. An empty ID targets the
// active one.
type DeleteConversationMsg struct {
	ID string
}

// DeleteLastMessageMsg removes the most recent visible message from the
// active conversation.
type DeleteLastMessageMsg struct{}

// SearchResultsMsg contains history search results.
type SearchResultsMsg struct {
	Query   string
	Results []SearchHit
	Error   error
}

// SearchHit is one search result row for display.
type SearchHit struct {
	ConversationID string
	Title          string
	Role           string
	Snippet        string
	Timestamp      string
}

// ModelSwitchMsg indicates a model switch request.
type ModelSwitchMsg struct {
	Model string // Empty means show the current model
}

// ShowConfigMsg triggers showing or setting configuration.
type ShowConfigMsg struct {
	Key   string // Optional specific key
	Value string // For setting
}

// ThemeMsg changes or shows the color theme.
type ThemeMsg struct {
	Theme string // Empty means show the current theme
}

// EasterEggMsg plays the matrix rain animation.
type EasterEggMsg struct{}

// ErrorMsg indicates an error occurred.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// SystemMessageMsg adds a system notice to the chat.
type SystemMessageMsg struct {
	Content string
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleInfo shows the info panel.
func HandleInfo(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowInfoMsg{}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a new conversation.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return NewConversationMsg{}
	}
}

// HandleRename renames the current conversation.
func HandleRename(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing title",
				Message: "A new title is required",
				Tip:     "Usage: /rename <title>",
			}
		}
	}
	title := strings.Join(args, " ")
	return func() tea.Msg {
		return RenameConversationMsg{Title: title}
	}
}

// HandleClear clears the conversation history.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleRetry regenerates the last assistant reply.
func HandleRetry(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return RetryMsg{}
	}
}

// HandleContinue asks the model to continue the last reply.
func HandleContinue(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ContinueMsg{}
	}
}

// HandleCopy copies the last response to the clipboard. The content is
// filled in by the app, which knows the current transcript.
func HandleCopy(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return CopyToClipboardMsg{}
	}
}

// HandleUpload attaches a file as conversation context.
func HandleUpload(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing path",
				Message: "A file path is required",
				Tip:     "Usage: /upload <path>",
			}
		}
	}
	path := args[0]
	return func() tea.Msg {
		return UploadFileMsg{Path: path}
	}
}

// HandleExport exports the conversation.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
		if format == "md" {
			format = "markdown"
		} else if format == "htm" {
			format = "html"
		}
	}

	switch format {
	case "markdown", "html", "json":
	default:
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid export format",
				Message: fmt.Sprintf("Unknown format: %s", format),
				Tip:     "Supported formats: markdown, html, json",
			}
		}
	}

	return func() tea.Msg {
		return ExportConversationMsg{Format: format}
	}
}

// HandleHistory lists saved conversations.
func HandleHistory(ctx *Context, args []string) tea.Cmd {
	if ctx != nil && ctx.Transcript != nil {
		store := ctx.Transcript
		return func() tea.Msg {
			metas := store.List()
			infos := make([]ConversationInfo, len(metas))
			for i, m := range metas {
				infos[i] = ConversationInfo{
					ID:        m.ID,
					Title:     m.Title,
					Model:     m.Model,
					Preview:   m.Preview,
					UpdatedAt: m.UpdatedAt.Format("2006-01-02 15:04"),
					MsgCount:  m.MessageCount,
				}
			}
			return ConversationListMsg{Conversations: infos}
		}
	}

	return func() tea.Msg {
		return ConversationListMsg{}
	}
}

// HandleLoad switches to a saved conversation.
func HandleLoad(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return HandleHistory(ctx, args)
	}

	id := args[0]
	return func() tea.Msg {
		return SwitchConversationMsg{ID: id}
	}
}

// HandleDelete removes a conversation, or the newest message with
// "/delete last".
func HandleDelete(ctx *Context, args []string) tea.Cmd {
	if len(args) > 0 && strings.ToLower(args[0]) == "last" {
		return func() tea.Msg {
			return DeleteLastMessageMsg{}
		}
	}

	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	return func() tea.Msg {
		return DeleteConversationMsg{ID: id}
	}
}

// HandleSearch searches past conversations through the history index.
func HandleSearch(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing query",
				Message: "A search query is required",
				Tip:     "Usage: /search <query>",
			}
		}
	}

	query := strings.Join(args, " ")

	if ctx != nil && ctx.History != nil {
		idx := ctx.History
		return func() tea.Msg {
			results, err := idx.Search(query, nil)
			if err != nil {
				return SearchResultsMsg{Query: query, Error: err}
			}

			hits := make([]SearchHit, len(results))
			for i, r := range results {
				hits[i] = SearchHit{
					ConversationID: r.ConversationID,
					Title:          r.Title,
					Role:           r.Role,
					Snippet:        r.Snippet,
					Timestamp:      r.Timestamp.Format("2006-01-02 15:04"),
				}
			}
			return SearchResultsMsg{Query: query, Results: hits}
		}
	}

	return func() tea.Msg {
		return SearchResultsMsg{Query: query}
	}
}

// HandleModel switches or shows the completion model.
func HandleModel(ctx *Context, args []string) tea.Cmd {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	return func() tea.Msg {
		return ModelSwitchMsg{Model: name}
	}
}

// HandleConfig shows or edits configuration.
func HandleConfig(ctx *Context, args []string) tea.Cmd {
	key, value := "", ""
	if len(args) > 0 {
		key = args[0]
	}
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}
	return func() tea.Msg {
		return ShowConfigMsg{Key: key, Value: value}
	}
}

// HandleTheme changes the color theme.
func HandleTheme(ctx *Context, args []string) tea.Cmd {
	theme := ""
	if len(args) > 0 {
		theme = strings.ToLower(args[0])
	}
	return func() tea.Msg {
		return ThemeMsg{Theme: theme}
	}
}

// HandleCmatrix plays the easter egg animation.
func HandleCmatrix(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return EasterEggMsg{}
	}
}
