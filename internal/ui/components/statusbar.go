// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: model, stream state, and
// shortcut hints.
type StatusBar struct {
	theme *styles.Theme

	Model      string
	State      string // "", "Requesting", "Streaming"
	Title      string
	MsgCount   int
	Notice     string // Transient notice (export path, copy result)
	NoticeType string // "success", "error", ""
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetNotice sets a transient notice with its type.
func (s *StatusBar) SetNotice(notice, noticeType string) {
	s.Notice = notice
	s.NoticeType = noticeType
}

// ClearNotice removes the current notice.
func (s *StatusBar) ClearNotice() {
	s.Notice = ""
	s.NoticeType = ""
}

// View renders the status bar at the given width.
func (s *StatusBar) View(width int) string {
	var left []string

	if s.Model != "" {
		left = append(left, s.theme.StatusModel.Render(s.Model))
	}
	if s.State != "" {
		left = append(left, s.theme.StatusState.Render(s.State))
	}
	if s.Title != "" {
		title := runewidth.Truncate(s.Title, 30, "...")
		left = append(left, s.theme.OverlayText.Render(title))
	}

	var right string
	switch {
	case s.Notice != "" && s.NoticeType == "error":
		right = s.theme.ErrorStyle.Render(s.Notice)
	case s.Notice != "":
		right = s.theme.SuccessStyle.Render(s.Notice)
	default:
		right = s.theme.ShortcutKey.Render("/help") +
			s.theme.ShortcutDesc.Render(" commands  ") +
			s.theme.ShortcutKey.Render("ctrl+c") +
			s.theme.ShortcutDesc.Render(" quit")
	}

	leftStr := strings.Join(left, s.theme.ShortcutDesc.Render(" | "))

	gap := width - lipgloss.Width(leftStr) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Width(width).Render(
		leftStr + strings.Repeat(" ", gap) + right,
	)
}
