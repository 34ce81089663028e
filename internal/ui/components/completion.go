// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/tidechat/internal/commands"
	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// =============================================================================
// COMPLETION POPUP
// =============================================================================

// maxVisibleCompletions limits the popup height.
const maxVisibleCompletions = 8

// CompletionPopup renders the tab-completion list above the input area.
type CompletionPopup struct {
	theme *styles.Theme
}

// NewCompletionPopup creates a completion popup renderer.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	return &CompletionPopup{theme: theme}
}

// View renders the popup for the given completion state.
func (p *CompletionPopup) View(state *commands.CompletionState, width int) string {
	if state == nil || !state.Visible || len(state.Completions) == 0 {
		return ""
	}

	// Window the list around the selection.
	start := 0
	if state.Selected >= maxVisibleCompletions {
		start = state.Selected - maxVisibleCompletions + 1
	}
	end := start + maxVisibleCompletions
	if end > len(state.Completions) {
		end = len(state.Completions)
	}

	valueWidth := 0
	for _, comp := range state.Completions[start:end] {
		if w := runewidth.StringWidth(comp.Display); w > valueWidth {
			valueWidth = w
		}
	}
	if valueWidth > 30 {
		valueWidth = 30
	}

	var rows []string
	for i := start; i < end; i++ {
		comp := state.Completions[i]

		display := runewidth.FillRight(runewidth.Truncate(comp.Display, valueWidth, "..."), valueWidth)
		line := display
		if comp.Description != "" {
			desc := runewidth.Truncate(comp.Description, width-valueWidth-8, "...")
			line += "  " + desc
		}

		if i == state.Selected {
			rows = append(rows, p.theme.CompletionSelected.Render(line))
		} else {
			rows = append(rows, p.theme.CompletionItem.Render(line))
		}
	}

	if len(state.Completions) > maxVisibleCompletions {
		more := p.theme.ListMeta.Render("  ...")
		rows = append(rows, more)
	}

	return p.theme.CompletionPopup.Render(strings.Join(rows, "\n"))
}
