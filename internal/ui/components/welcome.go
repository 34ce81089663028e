// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// =============================================================================
// WELCOME SCREEN
// =============================================================================

const logo = `
 _   _     _           _           _
| |_(_) __| | ___  ___| |__   __ _| |_
| __| |/ _` + "`" + ` |/ _ \/ __| '_ \ / _` + "`" + ` | __|
| |_| | (_| |  __/ (__| | | | (_| | |_
 \__|_|\__,_|\___|\___|_| |_|\__,_|\__|
`

// Welcome renders the startup screen shown before the first message.
type Welcome struct {
	theme   *styles.Theme
	Version string
	Model   string
}

// NewWelcome creates a welcome screen.
func NewWelcome(theme *styles.Theme, version, model string) *Welcome {
	return &Welcome{
		theme:   theme,
		Version: version,
		Model:   model,
	}
}

// View renders the welcome box centered in the given area.
func (w *Welcome) View(width, height int) string {
	var b strings.Builder

	b.WriteString(w.theme.WelcomeLogo.Render(strings.TrimPrefix(logo, "\n")))
	b.WriteString("\n")
	b.WriteString(w.theme.WelcomeVersion.Render("v" + w.Version))
	b.WriteString("\n\n")
	b.WriteString(w.theme.WelcomeInfo.Render("Model: " + w.Model))
	b.WriteString("\n\n")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"enter", "send message"},
		{"/help", "show commands"},
		{"/info", "device status"},
		{"esc", "cancel stream"},
		{"ctrl+c", "quit"},
	}

	for _, s := range shortcuts {
		b.WriteString(w.theme.WelcomeKey.Render(s.key))
		b.WriteString(w.theme.WelcomeInfo.Render("  " + s.desc))
		b.WriteString("\n")
	}

	box := w.theme.WelcomeBox.Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
