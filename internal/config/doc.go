// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages tidechat configuration.
//
// Settings come from ~/.tidechat/config.toml (or config.json), with
// built-in defaults and environment variable overrides applied on top.
// The OPENROUTER_API_KEY variable always wins over the file so keys can
// be kept out of the config entirely.
//
// Config files are written with 0600 permissions since they may hold an
// API key, and permissions are re-checked on every load.
package config
