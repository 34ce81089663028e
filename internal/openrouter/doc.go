// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter implements the streaming chat-completion client for
// the OpenRouter API.
//
// The package has two halves:
//
//   - Client issues a single POST to the chat completions endpoint with
//     stream enabled and pumps the response body through the decoder. It
//     is stateless between invocations and fails fast with
//     ErrNotConfigured when no API key is set.
//
//   - Decoder turns raw byte buffers, arriving at arbitrary chunk
//     boundaries, into an ordered sequence of text fragments terminated by
//     the [DONE] sentinel. Partial lines and partial UTF-8 codepoints are
//     carried over between reads, so no fragment is ever dropped or split
//     mid-character.
//
// # Usage
//
//	client := openrouter.NewClient(apiKey)
//	err := client.ChatStream(ctx, messages, func(fragment string) {
//	    fmt.Print(fragment)
//	})
//
// Errors are surfaced as transcript text via UserText; cancellation is
// reported through the context and is not a failure.
package openrouter
