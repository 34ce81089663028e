// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the bubbletea model for the chat view.
package chat

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/commands"
	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/history"
	"github.com/jeranaias/tidechat/internal/stream"
	"github.com/jeranaias/tidechat/internal/transcript"
	"github.com/jeranaias/tidechat/internal/ui/components"
	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// Version is the application version shown on the welcome screen.
const Version = "1.0.0"

// =============================================================================
// OVERLAY STATE
// =============================================================================

// overlay is the modal screen drawn over the chat, if any.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayInfo
	overlayHistory
	overlaySearch
	overlayMatrix
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the top-level bubbletea model for the chat view.
type Model struct {
	// Dependencies
	cfg        *config.Config
	store      *transcript.Store
	controller *stream.Controller
	index      *history.Index

	// Command system
	registry  *commands.Registry
	parser    *commands.Parser
	completer *commands.Completer
	cmdCtx    *commands.Context
	compState *commands.CompletionState

	// Components
	theme     *styles.Theme
	renderer  *components.MessageRenderer
	spinner   components.Spinner
	statusBar *components.StatusBar
	welcome   *components.Welcome
	matrix    *components.Matrix
	popup     *components.CompletionPopup

	// Layout
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	ready    bool

	// State
	overlay      overlay
	helpTopic    string
	historyList  []commands.ConversationInfo
	historySel   int
	searchQuery  string
	searchHits   []commands.SearchHit
	noticeSeq    int
	hasMessages  bool
	quitting     bool
}

// New creates the chat model. The stream controller's callbacks must be
// bridged afterwards with BridgeStream once the program exists.
func New(cfg *config.Config, store *transcript.Store, controller *stream.Controller, index *history.Index) *Model {
	theme := styles.NewThemeWithMode(styles.Mode(cfg.UI.Theme))

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)

	renderer := components.NewMessageRenderer(theme)
	renderer.ShowTimestamps = cfg.UI.ShowTimestamps
	renderer.Markdown = cfg.UI.Markdown

	input := textarea.New()
	input.Placeholder = "Message Tide... (/help for commands)"
	input.ShowLineNumbers = false
	input.SetHeight(1)
	input.CharLimit = 8000
	input.Focus()

	m := &Model{
		cfg:        cfg,
		store:      store,
		controller: controller,
		index:      index,
		registry:   registry,
		parser:     commands.NewParser(registry),
		completer:  completer,
		cmdCtx:     commands.NewContext(cfg, store, index),
		compState:  commands.NewCompletionState(),
		theme:      theme,
		renderer:   renderer,
		spinner:    components.NewSpinner(),
		statusBar:  components.NewStatusBar(theme),
		welcome:    components.NewWelcome(theme, Version, cfg.API.Model),
		matrix:     components.NewMatrix(theme),
		popup:      components.NewCompletionPopup(theme),
		input:      input,
	}

	completer.ConversationsFn = m.conversationInfos
	completer.ConfigFn = config.GetAllKeys

	m.statusBar.Model = cfg.API.Model

	return m
}

// BridgeStream wires the controller's callbacks to the program's message
// loop. Must be called before the program runs.
func (m *Model) BridgeStream(send func(tea.Msg)) {
	m.controller.
		OnFragment(func(conversationID, messageID, fragment string) {
			send(FragmentMsg{
				ConversationID: conversationID,
				MessageID:      messageID,
				Fragment:       fragment,
			})
		}).
		OnComplete(func(result stream.Result) {
			send(StreamDoneMsg{Result: result})
		})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// conversationInfos adapts the transcript list for tab completion.
func (m *Model) conversationInfos() []commands.ConversationInfo {
	metas := m.store.List()
	infos := make([]commands.ConversationInfo, len(metas))
	for i, meta := range metas {
		infos[i] = commands.ConversationInfo{
			ID:       meta.ID,
			Title:    meta.Title,
			Model:    meta.Model,
			Preview:  meta.Preview,
			MsgCount: meta.MessageCount,
		}
	}
	return infos
}

// activeID returns the active conversation's ID, or "".
func (m *Model) activeID() string {
	if conv := m.store.Active(); conv != nil {
		return conv.ID
	}
	return ""
}

// refreshViewport re-renders the transcript into the viewport. It renders
// a store snapshot: the live messages are being written by the streaming
// goroutine while this runs on the program goroutine.
func (m *Model) refreshViewport() {
	conv := m.store.ActiveSnapshot()
	if conv == nil {
		return
	}

	m.hasMessages = len(conv.VisibleMessages()) > 0

	content := m.renderer.RenderConversation(conv)
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// setNotice shows a transient notice in the status bar.
func (m *Model) setNotice(text, noticeType string) tea.Cmd {
	m.noticeSeq++
	m.statusBar.SetNotice(text, noticeType)
	return expireNotice(m.noticeSeq)
}

// streamStateLabel maps controller state to the status bar label.
func (m *Model) streamStateLabel() string {
	switch m.controller.State() {
	case stream.StateRequesting:
		return "Requesting"
	case stream.StateStreaming:
		return "Streaming"
	default:
		return ""
	}
}
