// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations and the messages inside them.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and metadata
//   - Message: Single message with role, kind, content, and streaming state
//   - Role: Message role enumeration (user, assistant, system)
//   - Kind: Message classification (plain, context note, device context,
//     continue request, easter egg)
//
// # Control messages
//
// Control messages steer request construction and are hidden from the
// conversation view. On the wire they carry a reserved bracket marker
// ([CONTEXT], [DEVICE_CONTEXT], [CONTINUE]); DecodeKind strips the marker
// once at the boundary so downstream code can switch on Kind instead of
// sniffing prefixes.
//
// # Usage
//
// Create a new conversation:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
package model
