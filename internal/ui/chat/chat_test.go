// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/commands"
	"github.com/jeranaias/tidechat/internal/config"
	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/openrouter"
	"github.com/jeranaias/tidechat/internal/stream"
	"github.com/jeranaias/tidechat/internal/transcript"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T) *Model {
	t.Helper()

	cfg := config.Default()
	cfg.UI.Theme = "dark"

	store := transcript.NewStore()
	client := openrouter.NewClient("test-key")
	controller := stream.NewController(client, store)

	m := New(cfg, store, controller, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// =============================================================================
// PLAIN INPUT SPECIALS
// =============================================================================

func TestInfoCheckOpensInfoOverlay(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("  Info_Check  ")

	m.handleSubmit()

	if m.overlay != overlayInfo {
		t.Errorf("overlay = %d, want info", m.overlay)
	}
	if conv := m.store.Active(); conv != nil && !conv.IsEmpty() {
		t.Error("info_check should not add a message")
	}
}

func TestCmatrixRecordsMarkerAndStartsRain(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("cmatrix")

	_, cmd := m.handleSubmit()

	if m.overlay != overlayMatrix {
		t.Errorf("overlay = %d, want matrix", m.overlay)
	}
	if cmd == nil {
		t.Fatal("expected a tick command")
	}

	conv := m.store.Active()
	if conv == nil {
		t.Fatal("no active conversation")
	}
	last := conv.GetLastMessage()
	if last == nil || last.Kind != model.KindEasterEgg {
		t.Errorf("expected easter egg marker, got %+v", last)
	}
}

func TestEmptyInputIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")

	m.handleSubmit()

	if conv := m.store.Active(); conv != nil && !conv.IsEmpty() {
		t.Error("blank input should not start a turn")
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestUnknownCommandShowsNotice(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("/bogus")

	m.handleSubmit()

	if m.statusBar.Notice == "" {
		t.Error("expected an error notice")
	}
	if m.statusBar.NoticeType != "error" {
		t.Errorf("notice type = %q, want error", m.statusBar.NoticeType)
	}
}

func TestNewConversationMsg(t *testing.T) {
	m := newTestModel(t)
	before := m.store.Count()

	m.Update(commands.NewConversationMsg{})

	if m.store.Count() != before+1 {
		t.Errorf("count = %d, want %d", m.store.Count(), before+1)
	}
}

func TestRenameUpdatesStatusBar(t *testing.T) {
	m := newTestModel(t)
	m.store.NewConversation()

	m.Update(commands.RenameConversationMsg{Title: "Tide pools"})

	if m.statusBar.Title != "Tide pools" {
		t.Errorf("title = %q", m.statusBar.Title)
	}
	if m.store.Active().Title != "Tide pools" {
		t.Errorf("conversation title = %q", m.store.Active().Title)
	}
}

func TestClearConversation(t *testing.T) {
	m := newTestModel(t)
	conv := m.store.NewConversation()
	conv.AddUserMessage("hello")

	m.Update(commands.ClearConversationMsg{})

	if !m.store.Active().IsEmpty() {
		t.Error("conversation not cleared")
	}
}

func TestDeleteConversationActivatesSurvivor(t *testing.T) {
	m := newTestModel(t)
	first := m.store.Active()
	first.AddUserMessage("keep me")
	second := m.store.NewConversation()

	m.Update(commands.DeleteConversationMsg{ID: second.ID})

	if m.store.Get(second.ID) != nil {
		t.Error("deleted conversation should be gone")
	}
	if m.store.Active().ID != first.ID {
		t.Error("survivor should become active")
	}
	if m.statusBar.Title != first.Title {
		t.Errorf("status bar title = %q, want %q", m.statusBar.Title, first.Title)
	}
}

func TestDeleteUnknownConversationShowsNotice(t *testing.T) {
	m := newTestModel(t)

	m.Update(commands.DeleteConversationMsg{ID: "nope"})

	if m.statusBar.NoticeType != "error" {
		t.Errorf("notice type = %q, want error", m.statusBar.NoticeType)
	}
}

func TestDeleteLastMessage(t *testing.T) {
	m := newTestModel(t)
	conv := m.store.Active()
	conv.AddUserMessage("hi")
	asst := conv.AddAssistantMessage()
	asst.AppendToken("hey")
	asst.FinalizeStream()

	m.Update(commands.DeleteLastMessageMsg{})

	if conv.MessageCount() != 1 {
		t.Errorf("message count = %d, want 1", conv.MessageCount())
	}
	if conv.GetLastMessage().Role != model.RoleUser {
		t.Error("user message should survive")
	}
}

func TestHistoryOverlayDeleteKey(t *testing.T) {
	m := newTestModel(t)
	first := m.store.Active()
	second := m.store.NewConversation()

	m.Update(commands.ConversationListMsg{Conversations: []commands.ConversationInfo{
		{ID: second.ID, Title: "newer"},
		{ID: first.ID, Title: "older"},
	}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})

	if m.store.Get(second.ID) != nil {
		t.Error("selected conversation should be deleted")
	}
	if len(m.historyList) != 1 {
		t.Errorf("history list has %d entries, want 1", len(m.historyList))
	}
	if m.overlay != overlayHistory {
		t.Error("overlay should stay open after a delete")
	}
}

func TestThemeRejectsUnknownValue(t *testing.T) {
	m := newTestModel(t)

	m.Update(commands.ThemeMsg{Theme: "neon"})

	if m.statusBar.NoticeType != "error" {
		t.Errorf("notice type = %q, want error", m.statusBar.NoticeType)
	}
	if m.cfg.UI.Theme != "dark" {
		t.Errorf("theme changed to %q", m.cfg.UI.Theme)
	}
}

func TestModelSwitchEmptyShowsCurrent(t *testing.T) {
	m := newTestModel(t)

	m.Update(commands.ModelSwitchMsg{})

	if !strings.Contains(m.statusBar.Notice, m.cfg.API.Model) {
		t.Errorf("notice = %q, want current model", m.statusBar.Notice)
	}
}

func TestConversationListOpensHistoryOverlay(t *testing.T) {
	m := newTestModel(t)

	m.Update(commands.ConversationListMsg{
		Conversations: []commands.ConversationInfo{
			{ID: "a", Title: "First"},
			{ID: "b", Title: "Second"},
		},
	})

	if m.overlay != overlayHistory {
		t.Errorf("overlay = %d, want history", m.overlay)
	}
	if len(m.historyList) != 2 {
		t.Errorf("list len = %d", len(m.historyList))
	}
}

func TestHistoryOverlayNavigation(t *testing.T) {
	m := newTestModel(t)
	a := m.store.NewConversation()
	m.store.NewConversation()

	m.Update(commands.ConversationListMsg{
		Conversations: []commands.ConversationInfo{
			{ID: a.ID, Title: "First"},
			{ID: "missing", Title: "Second"},
		},
	})

	m.handleOverlayKey(tea.KeyMsg{Type: tea.KeyDown})
	if m.historySel != 1 {
		t.Errorf("selection = %d, want 1", m.historySel)
	}
	m.handleOverlayKey(tea.KeyMsg{Type: tea.KeyUp})
	if m.historySel != 0 {
		t.Errorf("selection = %d, want 0", m.historySel)
	}

	m.handleOverlayKey(tea.KeyMsg{Type: tea.KeyEnter})
	if m.overlay != overlayNone {
		t.Error("overlay should close on selection")
	}
	if m.store.Active().ID != a.ID {
		t.Errorf("active = %s, want %s", m.store.Active().ID, a.ID)
	}
}

func TestEscClosesOverlay(t *testing.T) {
	m := newTestModel(t)
	m.overlay = overlayHelp

	m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})

	if m.overlay != overlayNone {
		t.Error("overlay should close on esc")
	}
}

// =============================================================================
// STREAM MESSAGES
// =============================================================================

func TestFragmentRefreshesTranscript(t *testing.T) {
	m := newTestModel(t)
	conv := m.store.NewConversation()
	conv.AddUserMessage("hi")
	reply := conv.AddAssistantMessage()
	reply.BeginStream()
	reply.AppendToken("hello there")

	m.Update(FragmentMsg{ConversationID: conv.ID, MessageID: reply.ID, Fragment: "hello there"})

	if !m.hasMessages {
		t.Error("hasMessages should be true after a fragment")
	}
}

func TestStreamDoneClearsState(t *testing.T) {
	m := newTestModel(t)
	m.store.NewConversation()
	m.statusBar.State = "Streaming"

	m.Update(StreamDoneMsg{Result: stream.Result{Outcome: stream.OutcomeCompleted}})

	if m.statusBar.State != "" {
		t.Errorf("state = %q, want empty", m.statusBar.State)
	}
}

func TestStreamFailureShowsNotice(t *testing.T) {
	m := newTestModel(t)
	m.store.NewConversation()

	m.Update(StreamDoneMsg{Result: stream.Result{Outcome: stream.OutcomeFailed}})

	if m.statusBar.NoticeType != "error" {
		t.Errorf("notice type = %q, want error", m.statusBar.NoticeType)
	}
}

func TestNoticeExpiryIgnoresStaleID(t *testing.T) {
	m := newTestModel(t)
	m.setNotice("first", "info")
	m.setNotice("second", "info")

	m.Update(noticeExpiredMsg{id: 1})
	if m.statusBar.Notice != "second" {
		t.Errorf("stale expiry cleared notice %q", m.statusBar.Notice)
	}

	m.Update(noticeExpiredMsg{id: 2})
	if m.statusBar.Notice != "" {
		t.Errorf("notice = %q, want cleared", m.statusBar.Notice)
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestApplyCompletion(t *testing.T) {
	tests := []struct {
		input string
		value string
		want  string
	}{
		{"/he", "/help", "/help"},
		{"/export m", "markdown", "/export markdown"},
		{"/export ", "json", "/export json"},
		{"", "/new", "/new"},
	}
	for _, tt := range tests {
		if got := applyCompletion(tt.input, tt.value); got != tt.want {
			t.Errorf("applyCompletion(%q, %q) = %q, want %q", tt.input, tt.value, got, tt.want)
		}
	}
}

func TestTabCompletionPopulatesState(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("/e")

	m.handleComplete(false)

	if !m.compState.Visible && !strings.HasPrefix(m.input.Value(), "/export") {
		t.Errorf("expected completion state or direct fill, input = %q", m.input.Value())
	}
}
