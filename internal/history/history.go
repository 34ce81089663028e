// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history maintains a searchable index over saved conversations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/tidechat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotIndexed    = errors.New("history not indexed")
	ErrIndexing      = errors.New("indexing in progress")
	ErrDatabaseError = errors.New("database error")
	ErrInvalidPath   = errors.New("invalid path")
)

// =============================================================================
// HISTORY INDEX
// =============================================================================

// Index maintains a SQLite index over the conversation files so past
// chats can be searched without loading every file.
type Index struct {
	db      *sql.DB
	watcher FileWatcher
	dir     string
	mu      sync.RWMutex

	// Indexing state
	indexing          bool
	indexingMu        sync.Mutex
	lastIndexed       time.Time
	conversationCount int
	messageCount      int

	config *Config
}

// Config holds index configuration.
type Config struct {
	// Dir is the conversations directory to index
	Dir string

	// DatabasePath is where to store the SQLite database
	DatabasePath string

	// EnableWatch enables file watching for incremental updates
	EnableWatch bool

	// WatchDebounce is the debounce duration for file change events
	WatchDebounce time.Duration
}

// DefaultConfig returns default configuration for a conversations directory.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:           dir,
		DatabasePath:  filepath.Join(filepath.Dir(dir), "history.db"),
		EnableWatch:   true,
		WatchDebounce: 500 * time.Millisecond,
	}
}

// NewIndex opens (or creates) a history index.
func NewIndex(config *Config) (*Index, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidPath)
	}

	dbDir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &Index{
		db:     db,
		dir:    config.Dir,
		config: config,
	}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Non-fatal if stats are missing on a fresh database.
	_ = idx.loadStats()

	return idx, nil
}

// initSchema creates the database schema.
func (idx *Index) initSchema() error {
	if _, err := idx.db.Exec(Schema); err != nil {
		return err
	}
	if _, err := idx.db.Exec(InitMetadata); err != nil {
		return err
	}
	_, err := idx.db.Exec("UPDATE metadata SET value = ? WHERE key = 'source_dir'", idx.dir)
	return err
}

// Close closes the index and releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.watcher != nil {
		idx.watcher.Close()
	}

	if idx.db != nil {
		return idx.db.Close()
	}

	return nil
}

// =============================================================================
// INDEXING
// =============================================================================

// Reindex performs a full index of the conversations directory.
func (idx *Index) Reindex(ctx context.Context) error {
	idx.indexingMu.Lock()
	if idx.indexing {
		idx.indexingMu.Unlock()
		return ErrIndexing
	}
	idx.indexing = true
	idx.indexingMu.Unlock()

	defer func() {
		idx.indexingMu.Lock()
		idx.indexing = false
		idx.indexingMu.Unlock()
	}()

	startTime := time.Now()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations"); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	entries, err := os.ReadDir(idx.dir)
	if err != nil {
		return fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var convCount, msgCount int
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		n, err := idx.indexConversation(tx, filepath.Join(idx.dir, entry.Name()))
		if err != nil {
			// Skip unreadable files, keep indexing the rest.
			continue
		}
		convCount++
		msgCount += n
	}

	now := time.Now().Unix()
	if _, err := tx.Exec("UPDATE metadata SET value = ? WHERE key = 'last_full_index'", now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	idx.mu.Lock()
	idx.lastIndexed = startTime
	idx.conversationCount = convCount
	idx.messageCount = msgCount
	idx.mu.Unlock()

	if idx.config.EnableWatch && idx.watcher == nil {
		// Non-fatal, search still works without live updates.
		_ = idx.startWatcher()
	}

	return nil
}

// indexConversation indexes one conversation file and returns its message count.
func (idx *Index) indexConversation(tx *sql.Tx, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return 0, err
	}
	if conv.ID == "" {
		return 0, fmt.Errorf("conversation has no ID")
	}

	// Replace any previous rows for this conversation.
	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conv.ID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", conv.ID); err != nil {
		return 0, err
	}

	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, model, created_at, updated_at, message_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, conv.ID, conv.GetTitle(), conv.Model, conv.CreatedAt.Unix(), conv.UpdatedAt.Unix(),
		len(conv.Messages), time.Now().Unix())
	if err != nil {
		return 0, err
	}

	for _, msg := range conv.Messages {
		kind := ""
		if msg.Kind.IsControl() {
			kind = string(msg.Kind)
		}
		_, err := tx.Exec(`
			INSERT INTO messages (conversation_id, message_id, role, kind, timestamp, content)
			VALUES (?, ?, ?, ?, ?, ?)
		`, conv.ID, msg.ID, string(msg.Role), kind, msg.Timestamp.Unix(), msg.Content)
		if err != nil {
			return 0, err
		}
	}

	return len(conv.Messages), nil
}

// UpdateConversation incrementally reindexes one conversation file.
func (idx *Index) UpdateConversation(path string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := idx.indexConversation(tx, path); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveConversation drops a conversation from the index by file path.
func (idx *Index) RemoveConversation(path string) error {
	id := strings.TrimSuffix(filepath.Base(path), ".json")
	_, err := idx.db.Exec("DELETE FROM conversations WHERE id = ?", id)
	return err
}

// loadStats loads statistics from the database.
func (idx *Index) loadStats() error {
	var lastIndexed int64
	err := idx.db.QueryRow("SELECT value FROM metadata WHERE key = 'last_full_index'").Scan(&lastIndexed)
	if err != nil {
		return err
	}

	if lastIndexed > 0 {
		idx.lastIndexed = time.Unix(lastIndexed, 0)
	}

	if err := idx.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&idx.conversationCount); err != nil {
		return err
	}
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&idx.messageCount); err != nil {
		return err
	}

	return nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats returns index statistics.
type Stats struct {
	ConversationCount int
	MessageCount      int
	LastIndexed       time.Time
	IsIndexing        bool
	DatabaseSize      int64
}

// Stats returns current index statistics.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.indexingMu.Lock()
	indexing := idx.indexing
	idx.indexingMu.Unlock()

	var dbSize int64
	if info, err := os.Stat(idx.config.DatabasePath); err == nil {
		dbSize = info.Size()
	}

	return Stats{
		ConversationCount: idx.conversationCount,
		MessageCount:      idx.messageCount,
		LastIndexed:       idx.lastIndexed,
		IsIndexing:        indexing,
		DatabaseSize:      dbSize,
	}
}

// IsIndexed returns true if the directory has been indexed.
func (idx *Index) IsIndexed() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return !idx.lastIndexed.IsZero()
}
