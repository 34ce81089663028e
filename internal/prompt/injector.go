// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt prepares the outbound message list for the completion API.
package prompt

import (
	"fmt"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/openrouter"
)

// Persona is the fixed system message prepended to every request.
const Persona = "You are Tide, a helpful assistant running in a terminal chat client. " +
	"Answer clearly and concisely, format replies in Markdown, and use fenced " +
	"code blocks with a language tag for code. Identify yourself as Tide if asked."

// BuildMessages converts an ordered transcript into the exact message list
// to transmit. Control messages become protocol-role instructions, empty
// entries are dropped, and the persona message is always first.
//
// The function is pure and idempotent: applied to a transcript with no
// control messages it returns the same list, persona entry aside.
func BuildMessages(messages []*model.Message) []openrouter.ChatMessage {
	out := make([]openrouter.ChatMessage, 0, len(messages)+1)
	out = append(out, openrouter.NewSystemMessage(Persona))

	for _, m := range messages {
		entry := transform(m)
		if entry.Content == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// transform maps one transcript message to its wire entry.
func transform(m *model.Message) openrouter.ChatMessage {
	switch m.Kind {
	case model.KindContextNote:
		return openrouter.NewSystemMessage(fmt.Sprintf(
			"[SYSTEM CONTEXT]: The user has provided the following context for your next response. "+
				"Do not respond to this message directly, but use it as information for the next user prompt. Context: %s",
			m.Content))
	case model.KindDeviceContext:
		return openrouter.NewSystemMessage(fmt.Sprintf(
			"The user's current device status is: %s. Use this information if the user asks about their device.",
			m.Content))
	case model.KindContinueRequest:
		return openrouter.NewUserMessage(fmt.Sprintf(
			"Please continue generating from where you left off. Here is the last part of your response: \"%s\"",
			m.Content))
	default:
		return openrouter.ChatMessage{
			Role:    m.Role.String(),
			Content: m.GetDisplayContent(),
		}
	}
}
