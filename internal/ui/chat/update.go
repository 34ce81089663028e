// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/commands"
	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/export"
	"github.com/jeranaias/tidechat/internal/files"
	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/stream"
	"github.com/jeranaias/tidechat/internal/ui/components"
	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.MatrixTickMsg:
		if m.overlay != overlayMatrix {
			return m, nil
		}
		return m, m.matrix.Update(msg)

	case components.MatrixDoneMsg:
		m.overlay = overlayNone
		return m, nil

	case FragmentMsg:
		m.spinner.Stop()
		m.statusBar.State = m.streamStateLabel()
		m.refreshViewport()
		return m, nil

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case noticeExpiredMsg:
		if msg.id == m.noticeSeq {
			m.statusBar.ClearNotice()
		}
		return m, nil

	case commands.ShowHelpMsg:
		m.overlay = overlayHelp
		m.helpTopic = msg.Topic
		return m, nil

	case commands.ShowInfoMsg:
		m.overlay = overlayInfo
		return m, nil

	case commands.NewConversationMsg:
		m.store.NewConversation()
		m.refreshViewport()
		return m, m.setNotice("Started a new conversation", "info")

	case commands.RenameConversationMsg:
		if m.store.Rename(m.activeID(), msg.Title) {
			m.statusBar.Title = msg.Title
			return m, m.setNotice("Renamed to "+msg.Title, "success")
		}
		return m, m.setNotice("Rename failed", "error")

	case commands.ClearConversationMsg:
		m.store.Clear(m.activeID())
		m.refreshViewport()
		return m, m.setNotice("Conversation cleared", "info")

	case commands.RetryMsg:
		return m.handleRetry()

	case commands.ContinueMsg:
		return m.handleContinue()

	case commands.CopyToClipboardMsg:
		return m.handleCopy(msg)

	case commands.UploadFileMsg:
		return m.handleUpload(msg)

	case commands.ExportConversationMsg:
		return m.handleExport(msg)

	case commands.ConversationListMsg:
		m.overlay = overlayHistory
		m.historyList = msg.Conversations
		m.historySel = 0
		return m, nil

	case commands.SwitchConversationMsg:
		if m.store.SwitchTo(msg.ID) {
			m.overlay = overlayNone
			m.refreshViewport()
			return m, m.setNotice("Switched conversation", "info")
		}
		return m, m.setNotice("No conversation "+msg.ID, "error")

	case commands.DeleteConversationMsg:
		return m.handleDeleteConversation(msg.ID)

	case commands.DeleteLastMessageMsg:
		return m.handleDeleteLastMessage()

	case commands.SearchResultsMsg:
		if msg.Error != nil {
			return m, m.setNotice("Search failed: "+msg.Error.Error(), "error")
		}
		m.overlay = overlaySearch
		m.searchQuery = msg.Query
		m.searchHits = msg.Results
		return m, nil

	case commands.ModelSwitchMsg:
		return m.handleModelSwitch(msg)

	case commands.ShowConfigMsg:
		return m.handleConfig(msg)

	case commands.ThemeMsg:
		return m.handleTheme(msg)

	case commands.EasterEggMsg:
		return m.playEasterEgg()

	case commands.ErrorMsg:
		text := msg.Title
		if msg.Message != "" {
			text += ": " + msg.Message
		}
		return m, m.setNotice(text, "error")

	case commands.SystemMessageMsg:
		if conv := m.store.Active(); conv != nil {
			m.store.Append(conv.ID, model.NewSystemMessage(msg.Content))
			m.refreshViewport()
		}
		return m, nil

	case commands.CopyCompleteMsg:
		return m, m.setNotice("Copied to clipboard", "success")
	}

	return m.updateComponents(msg)
}

// updateComponents forwards messages to the focused components.
func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.renderer.SetWidth(msg.Width)
	m.matrix.SetSize(msg.Width, msg.Height)

	inputHeight := 3
	chromeHeight := inputHeight + 2 // status bar and separator
	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 2)

	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Matrix rain swallows every key.
	if m.overlay == overlayMatrix {
		m.matrix.Stop()
		m.overlay = overlayNone
		return m, nil
	}

	if key.Matches(msg, keys.Quit) {
		m.controller.Cancel()
		m.quitting = true
		return m, tea.Quit
	}

	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Cancel):
		if m.controller.IsStreaming() {
			m.controller.Cancel()
			return m, nil
		}
		if m.compState.Visible {
			m.compState.Clear()
			return m, nil
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, keys.Complete):
		return m.handleComplete(false)

	case key.Matches(msg, keys.PrevComp):
		return m.handleComplete(true)

	case key.Matches(msg, keys.Submit):
		if m.compState.Visible {
			m.acceptCompletion()
			return m, nil
		}
		return m.handleSubmit()

	case key.Matches(msg, keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Typing hides a stale completion popup.
	if m.compState.Visible {
		m.compState.Clear()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleOverlayKey handles input while a modal overlay is up.
func (m *Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.overlay = overlayNone
		return m, nil
	}

	if m.overlay == overlayHistory {
		switch msg.String() {
		case "up", "k":
			if m.historySel > 0 {
				m.historySel--
			}
		case "down", "j":
			if m.historySel < len(m.historyList)-1 {
				m.historySel++
			}
		case "enter":
			if m.historySel < len(m.historyList) {
				id := m.historyList[m.historySel].ID
				return m.Update(commands.SwitchConversationMsg{ID: id})
			}
		case "d", "x":
			if m.historySel < len(m.historyList) {
				id := m.historyList[m.historySel].ID
				if id == m.activeID() && m.controller.IsStreaming() {
					m.controller.Cancel()
				}
				if m.store.Delete(id) {
					m.historyList = append(m.historyList[:m.historySel], m.historyList[m.historySel+1:]...)
					if m.historySel >= len(m.historyList) && m.historySel > 0 {
						m.historySel--
					}
					if conv := m.store.Active(); conv != nil {
						m.statusBar.Title = conv.Title
					}
					m.refreshViewport()
				}
			}
		}
	}

	return m, nil
}

// handleComplete starts or cycles tab completion.
func (m *Model) handleComplete(reverse bool) (tea.Model, tea.Cmd) {
	if m.compState.Visible {
		if reverse {
			m.compState.Prev()
		} else {
			m.compState.Next()
		}
		return m, nil
	}

	value := m.input.Value()
	comps := m.completer.Complete(value, len(value))
	if len(comps) == 0 {
		return m, nil
	}
	if len(comps) == 1 {
		m.input.SetValue(applyCompletion(value, comps[0].Value))
		m.input.CursorEnd()
		return m, nil
	}
	m.compState.Update(value, comps)
	return m, nil
}

// acceptCompletion inserts the selected completion into the input.
func (m *Model) acceptCompletion() {
	value := m.compState.Accept()
	if value != "" {
		m.input.SetValue(applyCompletion(m.compState.OriginalInput, value))
		m.input.CursorEnd()
	}
	m.compState.Clear()
}

// applyCompletion replaces the token being completed with the chosen value.
func applyCompletion(input, value string) string {
	if strings.HasSuffix(input, " ") || input == "" {
		return input + value
	}
	idx := strings.LastIndexAny(input, " \t")
	if idx < 0 {
		return value
	}
	return input[:idx+1] + value
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if commands.IsCommand(text) {
		return m.runCommand(text)
	}

	// Plain-input shortcuts, matched after trimming and lowercasing.
	switch strings.ToLower(text) {
	case "info_check":
		m.overlay = overlayInfo
		return m, nil
	case "cmatrix":
		return m.playEasterEgg()
	}

	return m.startTurn(text)
}

// runCommand parses and dispatches a slash command.
func (m *Model) runCommand(text string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		return m, m.setNotice("Unknown command "+result.CommandName, "error")
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		return m, m.setNotice(err.Error(), "error")
	}
	return m, result.Command.Handler(m.cmdCtx, result.Args)
}

// startTurn sends the user's text as a new turn.
func (m *Model) startTurn(text string) (tea.Model, tea.Cmd) {
	if m.controller.IsStreaming() {
		return m, m.setNotice("A response is already in progress", "warning")
	}

	conv := m.store.Active()
	if conv == nil {
		conv = m.store.NewConversation()
	}

	if _, err := m.controller.StartTurn(conv.ID, text); err != nil {
		return m, m.setNotice(err.Error(), "error")
	}

	m.statusBar.State = m.streamStateLabel()
	m.statusBar.Title = conv.Title
	m.refreshViewport()
	return m, m.spinner.Start()
}

// =============================================================================
// STREAM RESULTS
// =============================================================================

func (m *Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	m.statusBar.State = ""
	m.refreshViewport()

	if conv := m.store.Active(); conv != nil {
		m.statusBar.Title = conv.Title
	}

	switch msg.Result.Outcome {
	case stream.OutcomeCancelled:
		return m, m.setNotice("Cancelled", "warning")
	case stream.OutcomeFailed:
		text := "Stream failed"
		if msg.Result.Err != nil {
			text = msg.Result.Err.Error()
		}
		return m, m.setNotice(text, "error")
	}
	return m, nil
}

func (m *Model) handleRetry() (tea.Model, tea.Cmd) {
	if m.controller.IsStreaming() {
		return m, m.setNotice("A response is already in progress", "warning")
	}
	if _, err := m.controller.Retry(m.activeID()); err != nil {
		return m, m.setNotice(err.Error(), "error")
	}
	m.refreshViewport()
	return m, m.spinner.Start()
}

func (m *Model) handleContinue() (tea.Model, tea.Cmd) {
	if m.controller.IsStreaming() {
		return m, m.setNotice("A response is already in progress", "warning")
	}
	conv := m.store.ActiveSnapshot()
	if conv == nil {
		return m, m.setNotice("Nothing to continue", "warning")
	}
	last := conv.GetLastAssistantMessage()
	if last == nil {
		return m, m.setNotice("Nothing to continue", "warning")
	}
	if err := m.controller.Continue(conv.ID, last.ID); err != nil {
		return m, m.setNotice(err.Error(), "error")
	}
	m.refreshViewport()
	return m, m.spinner.Start()
}

// =============================================================================
// COMMAND EFFECTS
// =============================================================================

func (m *Model) handleCopy(msg commands.CopyToClipboardMsg) (tea.Model, tea.Cmd) {
	content := msg.Content
	if content == "" {
		conv := m.store.ActiveSnapshot()
		if conv == nil {
			return m, m.setNotice("Nothing to copy", "warning")
		}
		last := conv.GetLastAssistantMessage()
		if last == nil {
			return m, m.setNotice("Nothing to copy", "warning")
		}
		content = last.GetDisplayContent()
	}
	if err := clipboard.WriteAll(content); err != nil {
		return m, m.setNotice("Clipboard unavailable: "+err.Error(), "error")
	}
	return m, func() tea.Msg { return commands.CopyCompleteMsg{} }
}

func (m *Model) handleUpload(msg commands.UploadFileMsg) (tea.Model, tea.Cmd) {
	sum, err := files.Summarize(msg.Path)
	if err != nil {
		return m, m.setNotice(err.Error(), "error")
	}

	conv := m.store.Active()
	if conv == nil {
		conv = m.store.NewConversation()
	}
	m.store.Append(conv.ID, model.NewControlMessage(model.KindContextNote, sum.Message))
	m.refreshViewport()
	return m, m.setNotice(fmt.Sprintf("Attached %s (%s)", sum.Name, sum.Kind), "success")
}

func (m *Model) handleExport(msg commands.ExportConversationMsg) (tea.Model, tea.Cmd) {
	conv := m.store.ActiveSnapshot()
	if conv == nil || conv.IsEmpty() {
		return m, m.setNotice("Nothing to export", "warning")
	}
	path, err := export.Export(conv, msg.Format, export.DefaultOptions())
	if err != nil {
		return m, m.setNotice("Export failed: "+err.Error(), "error")
	}
	return m, m.setNotice("Exported to "+path, "success")
}

// handleDeleteConversation removes a conversation. The store guarantees a
// survivor (or a fresh conversation) becomes active.
func (m *Model) handleDeleteConversation(id string) (tea.Model, tea.Cmd) {
	if id == "" {
		id = m.activeID()
	}
	if id == m.activeID() && m.controller.IsStreaming() {
		m.controller.Cancel()
	}
	if !m.store.Delete(id) {
		return m, m.setNotice("No conversation "+id, "error")
	}
	if conv := m.store.Active(); conv != nil {
		m.statusBar.Title = conv.Title
	}
	m.refreshViewport()
	return m, m.setNotice("Conversation deleted", "info")
}

// handleDeleteLastMessage removes the newest visible message.
func (m *Model) handleDeleteLastMessage() (tea.Model, tea.Cmd) {
	conv := m.store.ActiveSnapshot()
	if conv == nil {
		return m, m.setNotice("Nothing to delete", "warning")
	}
	visible := conv.VisibleMessages()
	if len(visible) == 0 {
		return m, m.setNotice("Nothing to delete", "warning")
	}
	last := visible[len(visible)-1]
	if last.IsStreaming {
		return m, m.setNotice("Wait for the response to finish", "warning")
	}
	m.store.DeleteMessage(conv.ID, last.ID)
	m.refreshViewport()
	return m, m.setNotice("Message deleted", "info")
}

func (m *Model) handleModelSwitch(msg commands.ModelSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Model == "" {
		return m, m.setNotice("Model: "+m.cfg.API.Model, "info")
	}
	m.cfg.API.Model = msg.Model
	m.statusBar.Model = msg.Model
	if err := config.Save(m.cfg); err != nil {
		return m, m.setNotice("Switched model (not saved: "+err.Error()+")", "warning")
	}
	return m, m.setNotice("Switched to "+msg.Model, "success")
}

func (m *Model) handleConfig(msg commands.ShowConfigMsg) (tea.Model, tea.Cmd) {
	if msg.Key == "" {
		return m, m.setNotice("Usage: /config <key> [value]", "info")
	}
	if msg.Value == "" {
		val, err := m.cfg.Get(msg.Key)
		if err != nil {
			return m, m.setNotice(err.Error(), "error")
		}
		return m, m.setNotice(fmt.Sprintf("%s = %v", msg.Key, val), "info")
	}
	if err := m.cfg.Set(msg.Key, msg.Value); err != nil {
		return m, m.setNotice(err.Error(), "error")
	}
	if err := config.Save(m.cfg); err != nil {
		return m, m.setNotice("Set (not saved: "+err.Error()+")", "warning")
	}
	return m, m.setNotice(fmt.Sprintf("%s = %s", msg.Key, msg.Value), "success")
}

func (m *Model) handleTheme(msg commands.ThemeMsg) (tea.Model, tea.Cmd) {
	if msg.Theme == "" {
		return m, m.setNotice("Theme: "+m.cfg.UI.Theme, "info")
	}
	switch msg.Theme {
	case "dark", "light", "auto":
	default:
		return m, m.setNotice("Theme must be dark, light, or auto", "error")
	}

	m.cfg.UI.Theme = msg.Theme
	m.applyTheme()
	if err := config.Save(m.cfg); err != nil {
		return m, m.setNotice("Theme set (not saved: "+err.Error()+")", "warning")
	}
	return m, m.setNotice("Theme set to "+msg.Theme, "success")
}

// applyTheme rebuilds every themed component after a theme change.
func (m *Model) applyTheme() {
	m.theme = styles.NewThemeWithMode(styles.Mode(m.cfg.UI.Theme))
	m.theme.SetSize(m.width, m.height)

	renderer := components.NewMessageRenderer(m.theme)
	renderer.ShowTimestamps = m.cfg.UI.ShowTimestamps
	renderer.Markdown = m.cfg.UI.Markdown
	renderer.SetWidth(m.width)
	m.renderer = renderer

	bar := components.NewStatusBar(m.theme)
	bar.Model = m.statusBar.Model
	bar.State = m.statusBar.State
	bar.Title = m.statusBar.Title
	m.statusBar = bar

	m.welcome = components.NewWelcome(m.theme, Version, m.cfg.API.Model)
	m.matrix = components.NewMatrix(m.theme)
	m.matrix.SetSize(m.width, m.height)
	m.popup = components.NewCompletionPopup(m.theme)

	m.refreshViewport()
}

// playEasterEgg records the marker message and starts the rain.
func (m *Model) playEasterEgg() (tea.Model, tea.Cmd) {
	conv := m.store.Active()
	if conv == nil {
		conv = m.store.NewConversation()
	}
	m.store.Append(conv.ID, model.NewEasterEggMessage())
	m.overlay = overlayMatrix
	return m, m.matrix.Start(m.width, m.height)
}
