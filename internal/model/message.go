// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE KIND
// =============================================================================

// Kind classifies a message beyond its role. Control messages carry a
// reserved bracket marker on the wire; the marker is stripped on decode and
// restored on encode, so the rest of the pipeline never sniffs prefixes.
type Kind string

const (
	// KindPlain is an ordinary user or assistant message.
	KindPlain Kind = "plain"
	// KindContextNote carries background material the model should use
	// without replying to it directly (e.g. an uploaded file summary).
	KindContextNote Kind = "context"
	// KindDeviceContext carries a snapshot of the local device state.
	KindDeviceContext Kind = "device_context"
	// KindContinueRequest asks the model to resume a truncated reply.
	KindContinueRequest Kind = "continue"
	// KindEasterEgg marks a client-side animation message. Rendered as an
	// animation, never as text.
	KindEasterEgg Kind = "easter_egg"
)

// Wire markers for control messages. DecodeKind strips them by length, so
// the marker strings must not change.
const (
	markerContext       = "[CONTEXT]"
	markerDeviceContext = "[DEVICE_CONTEXT]"
	markerContinue      = "[CONTINUE]"
	markerEasterEgg     = "[CMATRIX]"
)

// DecodeKind classifies raw wire content and strips any control marker.
// Only user messages carry context/device/continue markers; only assistant
// messages carry the easter-egg marker. Anything else is plain.
func DecodeKind(role Role, raw string) (Kind, string) {
	switch {
	case role == RoleUser && strings.HasPrefix(raw, markerContext):
		return KindContextNote, raw[len(markerContext):]
	case role == RoleUser && strings.HasPrefix(raw, markerDeviceContext):
		return KindDeviceContext, raw[len(markerDeviceContext):]
	case role == RoleUser && strings.HasPrefix(raw, markerContinue):
		return KindContinueRequest, raw[len(markerContinue):]
	case role == RoleAssistant && raw == markerEasterEgg:
		return KindEasterEgg, raw
	default:
		return KindPlain, raw
	}
}

// EncodeWire restores the wire form of a decoded message: the control
// marker followed by the content. Plain and easter-egg messages are
// returned unchanged.
func EncodeWire(kind Kind, content string) string {
	switch kind {
	case KindContextNote:
		return markerContext + content
	case KindDeviceContext:
		return markerDeviceContext + content
	case KindContinueRequest:
		return markerContinue + content
	default:
		return content
	}
}

// IsControl reports whether the kind is a control message that is hidden
// from the conversation view.
func (k Kind) IsControl() bool {
	return k == KindContextNote || k == KindDeviceContext || k == KindContinueRequest
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Content holds the decoded text, without any control marker.
	Content string `json:"content"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new message with a generated ID. Content in wire
// form is decoded into a kind plus marker-free text.
func NewMessage(role Role, content string) *Message {
	kind, decoded := DecodeKind(role, content)
	return &Message{
		ID:        generateID(),
		Role:      role,
		Kind:      kind,
		Content:   decoded,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewControlMessage creates a user-role control message of the given kind.
func NewControlMessage(kind Kind, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an empty assistant message in streaming state.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Kind:        KindPlain,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewEasterEggMessage creates the assistant-role animation marker message.
func NewEasterEggMessage() *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Kind:      KindEasterEgg,
		Content:   markerEasterEgg,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendToken appends a fragment to a streaming message.
func (m *Message) AppendToken(token string) {
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// BeginStream puts an existing message back into streaming state, seeding
// the stream buffer with its current content. The continue flow uses this
// to extend a finished reply in place.
func (m *Message) BeginStream() {
	if m.IsStreaming {
		return
	}
	m.streamContent.Reset()
	m.streamContent.WriteString(m.Content)
	m.IsStreaming = true
}

// FinalizeStream merges the streamed content into Content.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// GetDisplayContent returns the content to display (streaming or final).
// A streaming snapshot carries its text in Content with an empty buffer,
// so the buffer is only authoritative when it holds something.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Snapshot returns a copy safe to read from another goroutine: the stream
// buffer is merged into Content and not carried over. strings.Builder must
// never be copied by value, its backing array would be shared with the
// original.
func (m *Message) Snapshot() *Message {
	return &Message{
		ID:          m.ID,
		Role:        m.Role,
		Kind:        m.Kind,
		Timestamp:   m.Timestamp,
		Content:     m.GetDisplayContent(),
		IsStreaming: m.IsStreaming,
	}
}

// WireContent returns the content in wire form, control marker included.
func (m *Message) WireContent() string {
	return EncodeWire(m.Kind, m.GetDisplayContent())
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.GetDisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	content := m.GetDisplayContent()
	return (len(content) + 3) / 4
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
