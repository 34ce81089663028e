// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the interactive chat view. The Model owns the
// transcript viewport, the input line, the slash command system, and
// the modal overlays. Stream progress arrives as FragmentMsg and
// StreamDoneMsg, bridged from the controller's callbacks by
// BridgeStream so transcript updates always happen on the program's
// message loop.
package chat
