// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// SearchResult is a message hit with its conversation context.
type SearchResult struct {
	ConversationID string
	Title          string
	MessageID      string
	Role           string
	Timestamp      time.Time
	Snippet        string
}

// ConversationSummary is one row of the indexed conversation list.
type ConversationSummary struct {
	ID           string
	Title        string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// SearchOptions configures search behavior.
type SearchOptions struct {
	// MaxResults limits the number of results (0 = unlimited)
	MaxResults int

	// Roles filters by message role (empty = all roles)
	Roles []string

	// IncludeHidden includes context and device control messages
	IncludeHidden bool

	// SnippetLength is the maximum snippet size in runes
	SnippetLength int
}

// DefaultSearchOptions returns default search options.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		MaxResults:    50,
		Roles:         []string{},
		IncludeHidden: false,
		SnippetLength: 120,
	}
}

// =============================================================================
// SEARCH METHODS
// =============================================================================

// Search finds messages whose content matches the query.
func (idx *Index) Search(query string, options *SearchOptions) ([]SearchResult, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}
	if options == nil {
		options = DefaultSearchOptions()
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sqlQuery := `
		SELECT m.conversation_id, c.title, m.message_id, m.role, m.timestamp, m.content
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.content LIKE ? ESCAPE '\'
	`
	args := []interface{}{"%" + escapeLike(query) + "%"}

	var conditions []string

	if !options.IncludeHidden {
		conditions = append(conditions, "m.kind = ''")
	}

	if len(options.Roles) > 0 {
		placeholders := make([]string, len(options.Roles))
		for i, role := range options.Roles {
			placeholders[i] = "?"
			args = append(args, role)
		}
		conditions = append(conditions, "m.role IN ("+strings.Join(placeholders, ",")+")")
	}

	if len(conditions) > 0 {
		sqlQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sqlQuery += " ORDER BY m.timestamp DESC"

	if options.MaxResults > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, options.MaxResults)
	}

	rows, err := idx.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var ts int64
		var content string
		if err := rows.Scan(&r.ConversationID, &r.Title, &r.MessageID, &r.Role, &ts, &content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		r.Timestamp = time.Unix(ts, 0)
		r.Snippet = makeSnippet(content, query, options.SnippetLength)
		results = append(results, r)
	}

	return results, rows.Err()
}

// SearchConversations finds conversations whose title matches the query.
func (idx *Index) SearchConversations(query string) ([]ConversationSummary, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []ConversationSummary{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT id, title, model, created_at, updated_at, message_count
		FROM conversations
		WHERE title LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC
	`, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListRecent returns the most recently updated conversations.
func (idx *Index) ListRecent(limit int) ([]ConversationSummary, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}
	if limit <= 0 {
		limit = 20
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT id, title, model, created_at, updated_at, message_count
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// =============================================================================
// HELPERS
// =============================================================================

type summaryRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSummaries(rows summaryRows) ([]ConversationSummary, error) {
	var out []ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		var created, updated int64
		if err := rows.Scan(&s.ID, &s.Title, &s.Model, &created, &updated, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		s.CreatedAt = time.Unix(created, 0)
		s.UpdatedAt = time.Unix(updated, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// makeSnippet trims content to a window around the first match.
func makeSnippet(content, query string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 120
	}

	content = strings.ReplaceAll(content, "\n", " ")
	lower := strings.ToLower(content)
	pos := strings.Index(lower, strings.ToLower(query))

	runes := []rune(content)
	if pos < 0 {
		if len(runes) <= maxLen {
			return content
		}
		return string(runes[:maxLen]) + "..."
	}

	// Convert the byte offset to a rune offset.
	runePos := len([]rune(content[:pos]))

	start := runePos - maxLen/4
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}
