// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the ordered message log for every conversation.
//
// The Store is the single mutation point for conversation state: message
// append/update/delete, conversation create/rename/clear/delete, and the
// active-conversation pointer. Every mutation produces an Event delivered
// to subscribed observers, which is how the UI learns about changes
// without the store knowing anything about rendering.
//
// Two invariants hold at all times:
//
//   - messages keep strict chronological insertion order
//   - at least one conversation exists (deleting the last one creates a
//     fresh empty conversation)
//
// A persistence backend is optional; when configured, mutated
// conversations are saved after each change, except for per-fragment
// streaming appends, which are too frequent to hit disk individually.
package transcript
