// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to shareable files.
//
// Three formats are supported:
//
//   - Markdown: human-readable with a YAML frontmatter header
//   - JSON: the complete conversation, suitable for re-import
//   - HTML: self-contained page with embedded styling
//
// By default exporters render only the messages the chat view shows;
// hidden context and device-status messages can be included with
// Options.IncludeHidden. JSON exports always include everything.
package export
