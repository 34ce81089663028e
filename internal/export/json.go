// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/tidechat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// jsonConversation is the stable wire shape for JSON exports.
type jsonConversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Model     string        `json:"model,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// JSONExporter exports conversations to JSON format.
// JSON exports always include the hidden control messages so the output is
// a faithful representation that can be re-imported.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	out := jsonConversation{
		ID:        conv.ID,
		Title:     conv.GetTitle(),
		Model:     conv.Model,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]jsonMessage, 0, len(conv.Messages)),
	}

	for _, msg := range conv.Messages {
		jm := jsonMessage{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Timestamp: msg.Timestamp,
			Content:   msg.GetDisplayContent(),
		}
		if msg.Kind.IsControl() {
			jm.Kind = string(msg.Kind)
		}
		out.Messages = append(out.Messages, jm)
	}

	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
