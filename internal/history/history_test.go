// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/tidechat/internal/model"
)

// writeConversation writes a conversation JSON file named after its ID.
func writeConversation(t *testing.T, dir string, conv *model.Conversation) string {
	t.Helper()

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, conv.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func makeConversation(id, title string, messages ...*model.Message) *model.Conversation {
	now := time.Now()
	return &model.Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  messages,
		Model:     "test/model",
	}
}

// newTestIndex creates an index over a temp directory with watching off.
func newTestIndex(t *testing.T, dir string) *Index {
	t.Helper()

	cfg := DefaultConfig(dir)
	cfg.EnableWatch = false

	idx, err := NewIndex(cfg)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestReindexCountsConversations(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "First chat",
		model.NewUserMessage("hello there"),
	))
	writeConversation(t, dir, makeConversation("conv-2", "Second chat",
		model.NewUserMessage("another question"),
		model.NewMessage(model.RoleAssistant, "an answer"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}

	stats := idx.Stats()
	if stats.ConversationCount != 2 {
		t.Errorf("conversation count = %d, want 2", stats.ConversationCount)
	}
	if stats.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", stats.MessageCount)
	}
	if !idx.IsIndexed() {
		t.Error("IsIndexed should be true after Reindex")
	}
}

func TestReindexSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Good chat",
		model.NewUserMessage("hello"),
	))
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0600); err != nil {
		t.Fatal(err)
	}

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}

	if got := idx.Stats().ConversationCount; got != 1 {
		t.Errorf("conversation count = %d, want 1", got)
	}
}

func TestSearchFindsMessages(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Recipes",
		model.NewUserMessage("how do I make sourdough bread"),
		model.NewMessage(model.RoleAssistant, "start with a sourdough starter"),
	))
	writeConversation(t, dir, makeConversation("conv-2", "Travel",
		model.NewUserMessage("best time to visit Lisbon"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("sourdough", nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.ConversationID != "conv-1" {
			t.Errorf("result conversation = %q, want conv-1", r.ConversationID)
		}
		if r.Title != "Recipes" {
			t.Errorf("result title = %q, want Recipes", r.Title)
		}
	}
}

func TestSearchRoleFilter(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Chat",
		model.NewUserMessage("tell me about gophers"),
		model.NewMessage(model.RoleAssistant, "gophers are burrowing rodents"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("gophers", &SearchOptions{Roles: []string{"assistant"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Role != "assistant" {
		t.Errorf("role = %q, want assistant", results[0].Role)
	}
}

func TestSearchHidesControlMessages(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Chat",
		model.NewControlMessage(model.KindDeviceContext, "Time: 1:00:00 PM, Date: 1/2/2026, Battery: 80%, Status: Charging"),
		model.NewUserMessage("what is my battery level"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("Battery", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (control messages hidden)", len(results))
	}
	if results[0].Role != "user" {
		t.Errorf("role = %q, want user", results[0].Role)
	}

	results, err = idx.Search("Battery", &SearchOptions{IncludeHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results with IncludeHidden, want 2", len(results))
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Chat",
		model.NewUserMessage("what does 100% mean here"),
		model.NewUserMessage("unrelated message"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("100%", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (%% must not act as a wildcard)", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Chat",
		model.NewUserMessage("hello"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search("   ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for blank query, want 0", len(results))
	}
}

func TestSearchBeforeReindex(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	if _, err := idx.Search("anything", nil); err != ErrNotIndexed {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}
}

func TestSearchConversationsByTitle(t *testing.T) {
	dir := t.TempDir()

	writeConversation(t, dir, makeConversation("conv-1", "Sourdough recipes",
		model.NewUserMessage("hello"),
	))
	writeConversation(t, dir, makeConversation("conv-2", "Travel plans",
		model.NewUserMessage("hello"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	summaries, err := idx.SearchConversations("sourdough")
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].ID != "conv-1" {
		t.Errorf("id = %q, want conv-1", summaries[0].ID)
	}
	if summaries[0].MessageCount != 1 {
		t.Errorf("message count = %d, want 1", summaries[0].MessageCount)
	}
}

func TestListRecentOrdersByUpdate(t *testing.T) {
	dir := t.TempDir()

	old := makeConversation("conv-old", "Old chat", model.NewUserMessage("hi"))
	old.UpdatedAt = time.Now().Add(-time.Hour)
	writeConversation(t, dir, old)

	writeConversation(t, dir, makeConversation("conv-new", "New chat",
		model.NewUserMessage("hi"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	summaries, err := idx.ListRecent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != "conv-new" {
		t.Errorf("first summary = %q, want conv-new", summaries[0].ID)
	}
}

func TestUpdateConversation(t *testing.T) {
	dir := t.TempDir()

	conv := makeConversation("conv-1", "Chat", model.NewUserMessage("hello"))
	path := writeConversation(t, dir, conv)

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	conv.AddMessage(model.NewMessage(model.RoleAssistant, "a fresh reply about quasars"))
	writeConversation(t, dir, conv)

	if err := idx.UpdateConversation(path); err != nil {
		t.Fatalf("UpdateConversation failed: %v", err)
	}

	results, err := idx.Search("quasars", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results after update, want 1", len(results))
	}
}

func TestRemoveConversation(t *testing.T) {
	dir := t.TempDir()

	path := writeConversation(t, dir, makeConversation("conv-1", "Chat",
		model.NewUserMessage("hello world"),
	))

	idx := newTestIndex(t, dir)
	if err := idx.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := idx.RemoveConversation(path); err != nil {
		t.Fatalf("RemoveConversation failed: %v", err)
	}

	results, err := idx.Search("hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results after removal, want 0 (cascade delete)", len(results))
	}
}

func TestSnippetWindow(t *testing.T) {
	long := "padding before the match " +
		"xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx " +
		"NEEDLE " +
		"yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy"

	snippet := makeSnippet(long, "needle", 60)
	if len([]rune(snippet)) > 70 {
		t.Errorf("snippet too long: %d runes", len([]rune(snippet)))
	}
	if want := "NEEDLE"; !strings.Contains(snippet, want) {
		t.Errorf("snippet %q does not contain %q", snippet, want)
	}
}
