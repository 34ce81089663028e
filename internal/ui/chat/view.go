// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tidechat/internal/device"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}
	if m.overlay == overlayMatrix {
		return m.matrix.View()
	}

	var b strings.Builder

	b.WriteString(m.bodyView())
	b.WriteString("\n")

	if m.compState.Visible {
		b.WriteString(m.popup.View(m.compState, m.width))
		b.WriteString("\n")
	}

	b.WriteString(m.inputView())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View(m.width))

	return b.String()
}

// bodyView renders the transcript area or the active overlay.
func (m *Model) bodyView() string {
	switch m.overlay {
	case overlayHelp:
		return m.placeOverlay(m.helpView())
	case overlayInfo:
		return m.placeOverlay(m.infoView())
	case overlayHistory:
		return m.placeOverlay(m.historyView())
	case overlaySearch:
		return m.placeOverlay(m.searchView())
	}

	if !m.hasMessages {
		return m.welcome.View(m.viewport.Width, m.viewport.Height)
	}
	return m.viewport.View()
}

// placeOverlay centers an overlay box inside the transcript area.
func (m *Model) placeOverlay(content string) string {
	box := m.theme.OverlayBox.MaxWidth(m.width - 4).Render(content)
	return lipgloss.Place(m.viewport.Width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center, box)
}

// inputView renders the prompt line.
func (m *Model) inputView() string {
	spin := ""
	if m.spinner.IsActive() {
		spin = m.spinner.View() + "\n"
	}
	return spin + m.theme.InputContainer.Width(m.width-2).Render(m.input.View())
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) helpView() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("Commands"))
	b.WriteString("\n\n")

	if m.helpTopic != "" {
		if cmd := m.registry.Get("/" + strings.TrimPrefix(m.helpTopic, "/")); cmd != nil {
			b.WriteString(m.theme.OverlaySection.Render(cmd.Name))
			b.WriteString("\n")
			b.WriteString(m.theme.OverlayText.Render(cmd.Description))
			b.WriteString("\n")
			if cmd.Usage != "" {
				b.WriteString(m.theme.ListMeta.Render("Usage: " + cmd.Usage))
				b.WriteString("\n")
			}
			b.WriteString("\n")
			b.WriteString(m.theme.ListMeta.Render("esc to close"))
			return b.String()
		}
	}

	byCategory := m.registry.ByCategory()
	for _, category := range []string{"Conversation", "Settings", "Navigation"} {
		cmds, ok := byCategory[category]
		if !ok {
			continue
		}
		b.WriteString(m.theme.OverlaySection.Render(category))
		b.WriteString("\n")
		for _, cmd := range cmds {
			if cmd.Hidden {
				continue
			}
			line := fmt.Sprintf("  %-12s %s", cmd.Name, cmd.Description)
			b.WriteString(m.theme.OverlayText.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ListMeta.Render("esc to close"))
	return b.String()
}

func (m *Model) infoView() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("tidechat " + Version))
	b.WriteString("\n\n")

	b.WriteString(m.theme.OverlaySection.Render("Session"))
	b.WriteString("\n")
	b.WriteString(m.theme.OverlayText.Render("  Model: " + m.cfg.API.Model))
	b.WriteString("\n")
	b.WriteString(m.theme.OverlayText.Render(fmt.Sprintf("  Conversations: %d", m.store.Count())))
	b.WriteString("\n")
	if conv := m.store.ActiveSnapshot(); conv != nil {
		b.WriteString(m.theme.OverlayText.Render(fmt.Sprintf("  Messages: %d", conv.MessageCount())))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.theme.OverlaySection.Render("Device"))
	b.WriteString("\n")
	for _, line := range strings.Split(device.Snapshot(), "\n") {
		b.WriteString(m.theme.OverlayText.Render("  " + line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ListMeta.Render("esc to close"))
	return b.String()
}

func (m *Model) historyView() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(m.historyList) == 0 {
		b.WriteString(m.theme.OverlayText.Render("No saved conversations"))
		b.WriteString("\n\n")
		b.WriteString(m.theme.ListMeta.Render("esc to close"))
		return b.String()
	}

	for i, conv := range m.historyList {
		line := fmt.Sprintf("%s  %s", conv.Title, conv.UpdatedAt)
		meta := fmt.Sprintf("    %d messages", conv.MsgCount)
		if conv.Preview != "" {
			meta += "  " + conv.Preview
		}
		if i == m.historySel {
			b.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.ListMeta.Render(meta))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ListMeta.Render("up/down to move, enter to open, d to delete, esc to close"))
	return b.String()
}

func (m *Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("Search: " + m.searchQuery))
	b.WriteString("\n\n")

	if len(m.searchHits) == 0 {
		b.WriteString(m.theme.OverlayText.Render("No matches"))
	} else {
		for _, hit := range m.searchHits {
			b.WriteString(m.theme.ListItem.Render(hit.Title))
			b.WriteString("\n")
			b.WriteString(m.theme.OverlayText.Render("  " + hit.Snippet))
			b.WriteString("\n")
			b.WriteString(m.theme.ListMeta.Render("  " + hit.ConversationID))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ListMeta.Render("esc to close"))
	return b.String()
}
