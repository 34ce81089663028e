// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/tidechat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to HTML format with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	messages := exportMessages(conv, e.options)
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(conv.GetTitle())))
	sb.WriteString("    <meta name=\"generator\" content=\"tidechat\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(conv.GetTitle())))
		sb.WriteString("            <div class=\"metadata\">\n")
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(conv.Model)))
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(messages)))
		sb.WriteString("            </div>\n")
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>tidechat</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING
// =============================================================================

// renderMessage renders one message bubble.
func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	role := string(msg.Role)
	label := msg.Role.DisplayName()
	if msg.Kind.IsControl() {
		role = "system"
		label = "System"
	}

	sb.WriteString(fmt.Sprintf("            <div class=\"message message-%s\">\n", role))
	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role\">%s</span>\n", html.EscapeString(label)))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n",
			formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	content := html.EscapeString(msg.GetDisplayContent())
	content = strings.ReplaceAll(content, "\n", "<br>\n")
	sb.WriteString(fmt.Sprintf("                <div class=\"message-content\">%s</div>\n", content))
	sb.WriteString("            </div>\n")

	return sb.String()
}

// getCSS returns the embedded stylesheet for both themes.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        :root {
            --bg: #ffffff; --fg: #1a1a2e; --muted: #6b7280;
            --user-bg: #e0f2fe; --assistant-bg: #f3f4f6; --system-bg: #fef9c3;
            --border: #e5e7eb;
        }
        .dark-theme {
            --bg: #0f1117; --fg: #e5e7eb; --muted: #9ca3af;
            --user-bg: #1e3a5f; --assistant-bg: #1f2430; --system-bg: #3a3520;
            --border: #2d3343;
        }
        body {
            background: var(--bg); color: var(--fg);
            font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
            margin: 0; line-height: 1.6;
        }
        .container { max-width: 820px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { margin-bottom: 0.25rem; }
        .metadata { color: var(--muted); font-size: 0.875rem; }
        .meta-item { margin-right: 1rem; }
        .message { border: 1px solid var(--border); border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .message-user { background: var(--user-bg); }
        .message-assistant { background: var(--assistant-bg); }
        .message-system { background: var(--system-bg); }
        .message-header { display: flex; justify-content: space-between; font-size: 0.8rem; color: var(--muted); margin-bottom: 0.5rem; }
        .role { font-weight: 600; }
        .message-content { white-space: pre-wrap; word-wrap: break-word; }
        .footer { color: var(--muted); font-size: 0.8rem; text-align: center; margin-top: 2rem; }
    </style>
`
}
