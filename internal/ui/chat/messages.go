// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/stream"
)

// =============================================================================
// STREAM BRIDGE MESSAGES
// =============================================================================

// The stream controller runs its own goroutine; its callbacks are bridged
// into the bubbletea loop as messages via Program.Send.

// FragmentMsg carries one streamed fragment already applied to the
// transcript. The UI only needs to refresh the viewport.
type FragmentMsg struct {
	ConversationID string
	MessageID      string
	Fragment       string
}

// StreamDoneMsg carries the terminal result of a generation.
type StreamDoneMsg struct {
	Result stream.Result
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// noticeExpiredMsg clears a transient status bar notice.
type noticeExpiredMsg struct {
	id int
}

// noticeDuration is how long transient notices stay visible.
const noticeDuration = 4 * time.Second

// expireNotice schedules a notice expiry.
func expireNotice(id int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}
