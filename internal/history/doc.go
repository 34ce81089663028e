// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history indexes saved conversations into SQLite so they can be
// searched without reading every file on disk.
//
// The index is a cache over the JSON conversation files, which remain the
// source of truth. Reindex rebuilds it from scratch; after that a file
// watcher (fsnotify, with a polling fallback) keeps it current as
// conversations are saved, renamed, or deleted. Hidden control messages
// such as injected device context are excluded from search results by
// default.
package history
