// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer renders conversation messages for the viewport.
type MessageRenderer struct {
	theme *styles.Theme
	width int

	// ShowTimestamps prefixes each message with its time
	ShowTimestamps bool

	// Markdown renders assistant replies through glamour
	Markdown bool

	// ShowHidden reveals context and device control messages
	ShowHidden bool

	renderer      *glamour.TermRenderer
	rendererWidth int
}

// NewMessageRenderer creates a renderer for the given theme.
func NewMessageRenderer(theme *styles.Theme) *MessageRenderer {
	return &MessageRenderer{
		theme:    theme,
		width:    80,
		Markdown: true,
	}
}

// SetWidth updates the wrap width for subsequent renders.
func (r *MessageRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.width = width
}

// Render renders one message, or an empty string for messages that are
// hidden from the conversation view.
func (r *MessageRenderer) Render(msg *model.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Kind.IsControl() && !r.ShowHidden {
		return ""
	}
	if msg.Kind == model.KindEasterEgg {
		// Rendered as an animation by the chat model, never as text.
		return ""
	}

	switch {
	case msg.Kind.IsControl():
		return r.renderContext(msg)
	case msg.Role == model.RoleUser:
		return r.renderUser(msg)
	default:
		return r.renderAssistant(msg)
	}
}

// renderUser renders a user message with its label.
func (r *MessageRenderer) renderUser(msg *model.Message) string {
	label := r.theme.UserLabel.Render("You")
	label = r.withTimestamp(label, msg)

	body := r.theme.UserBubble.
		Width(r.width - 4).
		Render(msg.Content)

	return label + "\n" + body
}

// renderAssistant renders an assistant reply, optionally through glamour.
func (r *MessageRenderer) renderAssistant(msg *model.Message) string {
	label := r.theme.AssistantLabel.Render("Tide")
	label = r.withTimestamp(label, msg)

	content := msg.GetDisplayContent()

	var body string
	if msg.IsStreaming {
		// No markdown pass while streaming: partial fences and emphasis
		// markers would flicker. Code blocks still render.
		body = ParseCodeBlocks(content, r.width)
		body += r.theme.StreamCursor.Render("|")
	} else if r.Markdown {
		body = r.renderMarkdown(content)
	} else {
		body = ParseCodeBlocks(content, r.width)
	}

	return label + "\n" + r.theme.AssistantBody.Render(body)
}

// renderContext renders a revealed control message.
func (r *MessageRenderer) renderContext(msg *model.Message) string {
	var label string
	switch msg.Kind {
	case model.KindDeviceContext:
		label = r.theme.ContextLabel.Render("[Device Status]")
	case model.KindContinueRequest:
		label = r.theme.ContextLabel.Render("[Continue]")
	default:
		label = r.theme.ContextLabel.Render("[Context]")
	}
	label = r.withTimestamp(label, msg)

	body := r.theme.ContextBubble.
		Width(r.width - 4).
		Render(msg.Content)

	return label + "\n" + body
}

// withTimestamp appends the message time to a label when enabled.
func (r *MessageRenderer) withTimestamp(label string, msg *model.Message) string {
	if !r.ShowTimestamps || msg.Timestamp.IsZero() {
		return label
	}
	ts := r.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	return label + " " + ts
}

// renderMarkdown renders markdown through glamour, falling back to the
// code-block parser when rendering fails.
func (r *MessageRenderer) renderMarkdown(content string) string {
	if err := r.ensureRenderer(); err != nil {
		return ParseCodeBlocks(content, r.width)
	}

	out, err := r.renderer.Render(content)
	if err != nil {
		return ParseCodeBlocks(content, r.width)
	}

	return strings.TrimRight(out, "\n")
}

// ensureRenderer builds (or rebuilds after a resize) the glamour renderer.
func (r *MessageRenderer) ensureRenderer() error {
	if r.renderer != nil && r.rendererWidth == r.width {
		return nil
	}

	styleOpt := glamour.WithStandardStyle("dark")
	if !r.theme.IsDark {
		styleOpt = glamour.WithStandardStyle("light")
	}

	renderer, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return err
	}

	r.renderer = renderer
	r.rendererWidth = r.width
	return nil
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// RenderConversation renders all visible messages joined by blank lines.
func (r *MessageRenderer) RenderConversation(conv *model.Conversation) string {
	if conv == nil || len(conv.Messages) == 0 {
		return ""
	}

	var parts []string
	for _, msg := range conv.Messages {
		if rendered := r.Render(msg); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	return strings.Join(parts, "\n\n")
}

// RenderSeparator renders a horizontal separator line.
func (r *MessageRenderer) RenderSeparator() string {
	return lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(strings.Repeat("-", r.width))
}
