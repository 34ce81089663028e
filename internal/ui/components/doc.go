// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the tidechat TUI:
// message rendering (glamour markdown plus chroma code blocks), the
// thinking spinner, the status bar, the welcome screen, the completion
// popup, and the cmatrix rain animation.
package components
