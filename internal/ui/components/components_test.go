// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// ansiPattern matches terminal escape sequences emitted by the syntax
// highlighter.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripAnsi removes terminal escape sequences so assertions see plain text.
func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func testTheme() *styles.Theme {
	return styles.NewThemeWithMode(styles.ModeDark)
}

func TestMessageRendererUser(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.Markdown = false

	out := r.Render(model.NewUserMessage("hello there"))
	if !strings.Contains(out, "You") {
		t.Error("user message should carry the You label")
	}
	if !strings.Contains(out, "hello there") {
		t.Error("user message content missing")
	}
}

func TestMessageRendererHidesControlMessages(t *testing.T) {
	r := NewMessageRenderer(testTheme())

	msg := model.NewControlMessage(model.KindDeviceContext, "Battery: 50%")
	if out := r.Render(msg); out != "" {
		t.Errorf("control message should be hidden by default, got %q", out)
	}

	r.ShowHidden = true
	out := r.Render(msg)
	if !strings.Contains(out, "[Device Status]") {
		t.Error("revealed device context should carry its label")
	}
	if !strings.Contains(out, "Battery: 50%") {
		t.Error("revealed device context content missing")
	}
}

func TestMessageRendererSkipsEasterEgg(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.ShowHidden = true

	if out := r.Render(model.NewEasterEggMessage()); out != "" {
		t.Errorf("easter egg marker should never render as text, got %q", out)
	}
}

func TestMessageRendererStreamingCursor(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.Markdown = false

	msg := model.NewAssistantMessage()
	msg.AppendToken("partial reply")

	out := r.Render(msg)
	if !strings.Contains(out, "partial reply") {
		t.Error("streaming content missing")
	}
	if !strings.Contains(out, "|") {
		t.Error("streaming message should show the cursor")
	}
}

func TestRenderConversationOrder(t *testing.T) {
	r := NewMessageRenderer(testTheme())
	r.Markdown = false

	conv := model.NewConversation()
	conv.AddMessage(model.NewUserMessage("first question"))
	reply := model.NewAssistantMessage()
	reply.AppendToken("first answer")
	reply.FinalizeStream()
	conv.AddMessage(reply)

	out := r.RenderConversation(conv)
	qPos := strings.Index(out, "first question")
	aPos := strings.Index(out, "first answer")
	if qPos < 0 || aPos < 0 {
		t.Fatal("both messages should render")
	}
	if qPos > aPos {
		t.Error("messages out of order")
	}
}

func TestParseCodeBlocks(t *testing.T) {
	text := "before\n```go\npackage main\n```\nafter"
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Error("prose around code block missing")
	}
	if !strings.Contains(stripAnsi(out), "package main") {
		t.Error("code content missing")
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers should be consumed")
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	text := "reply\n```python\nprint('hi')"
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "print") {
		t.Error("unclosed code block should still render")
	}
}

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner()

	if s.IsActive() {
		t.Error("spinner should start inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	cmd := s.Start()
	if cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !s.IsActive() {
		t.Error("spinner should be active after Start")
	}
	if !strings.Contains(s.View(), "Thinking") {
		t.Error("active spinner should show its message")
	}

	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be inactive after Stop")
	}
}

func TestStatusBarNotice(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.Model = "some/model"

	out := sb.View(80)
	if !strings.Contains(out, "some/model") {
		t.Error("status bar should show the model")
	}

	sb.SetNotice("Exported to chat.md", "success")
	out = sb.View(80)
	if !strings.Contains(out, "Exported to chat.md") {
		t.Error("status bar should show the notice")
	}

	sb.ClearNotice()
	if strings.Contains(sb.View(80), "Exported") {
		t.Error("cleared notice should not render")
	}
}

func TestMatrixLifecycle(t *testing.T) {
	m := NewMatrix(testTheme())

	if m.IsActive() {
		t.Error("matrix should start inactive")
	}

	cmd := m.Start(20, 10)
	if cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !m.IsActive() {
		t.Error("matrix should be active after Start")
	}

	view := m.View()
	if view == "" {
		t.Error("active matrix should render frames")
	}
	if !strings.Contains(view, "press any key") {
		t.Error("matrix view should include the exit hint")
	}

	m.Stop()
	if m.View() != "" {
		t.Error("stopped matrix should render nothing")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{1.5, "1.5s"},
		{59.9, "59.9s"},
		{60, "1m00s"},
		{125, "2m05s"},
	}
	for _, tt := range tests {
		d := time.Duration(tt.secs * float64(time.Second))
		if got := formatElapsed(d); got != tt.want {
			t.Errorf("formatElapsed(%vs) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
