// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands implements the slash command system for the chat TUI.
//
// Commands start with / and are parsed into a name plus arguments, with
// quoting for arguments that contain spaces. The Registry holds the
// built-in command set; handlers return bubbletea commands that emit
// typed messages for the application to act on, so the package stays
// decoupled from the UI model. The Completer provides tab completion
// over command names, enum values, conversation IDs, and file paths.
package commands
