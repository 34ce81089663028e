// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for tidechat.
//
// Conversations are stored as one JSON file each under
// ~/.tidechat/conversations/. Writes are atomic (temp file, fsync,
// rename), so a crash never leaves a partially written conversation.
//
// # Usage
//
//	store, err := storage.NewConversationStore()
//	id, err := store.Save(conv)
//	conv, err := store.Load(id)
//	metas, err := store.List()
//
// The store keeps at most MaxConversations files; the oldest are removed
// when the limit is exceeded.
package storage
