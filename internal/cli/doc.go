// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements tidechat's non-TUI surface: argument parsing,
// the one-shot ask command, a readline-style chat loop, and the
// config, history, and export commands. Output adapts to the terminal;
// piped output stays plain.
package cli
