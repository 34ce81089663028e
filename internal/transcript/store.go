// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript owns the ordered message log for every conversation.
package transcript

import (
	"errors"
	"sync"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/storage"
)

var (
	// ErrNoConversation is returned when an operation targets a
	// conversation ID the store does not hold.
	ErrNoConversation = errors.New("conversation not found")

	// ErrNoUserMessage is returned by retry flows when a conversation
	// has no plain user message to resend.
	ErrNoUserMessage = errors.New("no user message to retry")

	// ErrNoMessage is returned when an operation targets a message ID
	// that does not exist in the conversation.
	ErrNoMessage = errors.New("message not found")
)

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a transcript mutation.
type EventType int

const (
	EventMessageAppended EventType = iota
	EventMessageUpdated
	EventMessageDeleted
	EventConversationAdded
	EventConversationRenamed
	EventConversationCleared
	EventConversationDeleted
	EventConversationSwitched
)

// Event describes one transcript mutation. MessageID is empty for
// conversation-level events.
type Event struct {
	Type           EventType
	ConversationID string
	MessageID      string
}

// Observer receives transcript mutation events. Observers are called
// synchronously, in registration order, with the store lock released.
type Observer func(Event)

// =============================================================================
// STORE
// =============================================================================

// Store holds all conversations in memory and notifies observers on every
// mutation. An optional persistence backend saves the active conversation
// after each change.
//
// Invariant: at least one conversation always exists, and one of them is
// always active.
type Store struct {
	mu            sync.Mutex
	conversations []*model.Conversation
	activeID      string
	observers     []Observer
	backend       *storage.ConversationStore
}

// NewStore creates a store with a single empty conversation and no
// persistence backend.
func NewStore() *Store {
	conv := model.NewConversation()
	return &Store{
		conversations: []*model.Conversation{conv},
		activeID:      conv.ID,
	}
}

// NewStoreWithBackend creates a store that loads existing conversations
// from the backend and saves after every mutation. An empty backend
// yields a single fresh conversation.
func NewStoreWithBackend(backend *storage.ConversationStore) (*Store, error) {
	convs, err := backend.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		convs = []*model.Conversation{model.NewConversation()}
	}
	return &Store{
		conversations: convs,
		activeID:      convs[0].ID,
		backend:       backend,
	}, nil
}

// Subscribe registers an observer for mutation events.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// notify delivers an event with the lock released.
func (s *Store) notify(ev Event) {
	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// persist saves a conversation to the backend, if one is configured. The
// caller passes a clone taken under the store lock; saving the live
// pointer would read stream buffers the streaming goroutine is writing.
func (s *Store) persist(conv *model.Conversation) {
	if s.backend == nil || conv == nil {
		return
	}
	s.backend.Save(conv)
}

// cloneLocked returns a read-safe copy of a conversation. Callers must
// hold s.mu.
func (s *Store) cloneLocked(id string) *model.Conversation {
	if conv := s.findLocked(id); conv != nil {
		return conv.Clone()
	}
	return nil
}

// =============================================================================
// CONVERSATION ACCESS
// =============================================================================

// Active returns the active conversation.
func (s *Store) Active() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.activeID)
}

// Get returns the conversation with the given ID, or nil.
func (s *Store) Get(id string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// Snapshot returns a deep copy of a conversation, or nil. Readers that can
// run concurrently with a stream (renderers, exporters, outbound request
// builders) use this instead of the live pointer.
func (s *Store) Snapshot(id string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked(id)
}

// ActiveSnapshot returns a deep copy of the active conversation.
func (s *Store) ActiveSnapshot() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked(s.activeID)
}

// List returns all conversations, most recently updated first.
func (s *Store) List() []model.ConversationMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	metas := make([]model.ConversationMeta, 0, len(s.conversations))
	for _, conv := range s.conversations {
		metas = append(metas, conv.GetMeta())
	}
	for i := 1; i < len(metas); i++ {
		for j := i; j > 0 && metas[j].UpdatedAt.After(metas[j-1].UpdatedAt); j-- {
			metas[j], metas[j-1] = metas[j-1], metas[j]
		}
	}
	return metas
}

// Count returns the number of conversations.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *Store) findLocked(id string) *model.Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// =============================================================================
// CONVERSATION CRUD
// =============================================================================

// NewConversation creates a fresh empty conversation, makes it active, and
// returns it.
func (s *Store) NewConversation() *model.Conversation {
	conv := model.NewConversation()

	s.mu.Lock()
	s.conversations = append(s.conversations, conv)
	s.activeID = conv.ID
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventConversationAdded, ConversationID: conv.ID})
	return conv
}

// SwitchTo makes the conversation with the given ID active.
func (s *Store) SwitchTo(id string) bool {
	s.mu.Lock()
	conv := s.findLocked(id)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	s.activeID = id
	s.mu.Unlock()

	s.notify(Event{Type: EventConversationSwitched, ConversationID: id})
	return true
}

// Rename sets a conversation's title.
func (s *Store) Rename(id, title string) bool {
	s.mu.Lock()
	conv := s.findLocked(id)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	conv.SetTitle(title)
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventConversationRenamed, ConversationID: id})
	return true
}

// Clear removes all messages from a conversation, keeping the
// conversation itself.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	conv := s.findLocked(id)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	conv.ClearHistory()
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventConversationCleared, ConversationID: id})
	return true
}

// Delete removes a conversation. Deleting the last one creates a fresh
// empty conversation, so the store is never empty. If the deleted
// conversation was active, the most recently updated survivor becomes
// active.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	idx := -1
	for i, conv := range s.conversations {
		if conv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	var created, createdSnap *model.Conversation
	if len(s.conversations) == 0 {
		created = model.NewConversation()
		createdSnap = created.Clone()
		s.conversations = []*model.Conversation{created}
		s.activeID = created.ID
	} else if s.activeID == id {
		next := s.conversations[0]
		for _, conv := range s.conversations[1:] {
			if conv.UpdatedAt.After(next.UpdatedAt) {
				next = conv
			}
		}
		s.activeID = next.ID
	}
	s.mu.Unlock()

	if s.backend != nil {
		s.backend.Delete(id)
	}
	s.notify(Event{Type: EventConversationDeleted, ConversationID: id})
	if created != nil {
		s.persist(createdSnap)
		s.notify(Event{Type: EventConversationAdded, ConversationID: created.ID})
	}
	return true
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// Append adds a message to a conversation.
func (s *Store) Append(conversationID string, msg *model.Message) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	conv.AddMessage(msg)
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventMessageAppended, ConversationID: conversationID, MessageID: msg.ID})
	return true
}

// AppendContent appends a streamed fragment to a message. The per-fragment
// path skips persistence; the finished message is saved by Update or an
// explicit Save.
func (s *Store) AppendContent(conversationID, messageID, fragment string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	msg := conv.GetMessageByID(messageID)
	if msg == nil {
		s.mu.Unlock()
		return false
	}
	msg.AppendToken(fragment)
	s.mu.Unlock()

	s.notify(Event{Type: EventMessageUpdated, ConversationID: conversationID, MessageID: messageID})
	return true
}

// FinalizeMessage merges a message's stream buffer into its content and
// persists the conversation.
func (s *Store) FinalizeMessage(conversationID, messageID string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	msg := conv.GetMessageByID(messageID)
	if msg == nil {
		s.mu.Unlock()
		return false
	}
	msg.FinalizeStream()
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventMessageUpdated, ConversationID: conversationID, MessageID: messageID})
	return true
}

// Update replaces a message's content.
func (s *Store) Update(conversationID, messageID, content string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil || !conv.UpdateMessage(messageID, content) {
		s.mu.Unlock()
		return false
	}
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventMessageUpdated, ConversationID: conversationID, MessageID: messageID})
	return true
}

// DeleteMessage removes a single message.
func (s *Store) DeleteMessage(conversationID, messageID string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil || !conv.RemoveMessage(messageID) {
		s.mu.Unlock()
		return false
	}
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventMessageDeleted, ConversationID: conversationID, MessageID: messageID})
	return true
}

// DeleteAfter removes every message after the one with the given ID.
func (s *Store) DeleteAfter(conversationID, messageID string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil || !conv.RemoveMessagesAfter(messageID) {
		s.mu.Unlock()
		return false
	}
	snap := conv.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(Event{Type: EventMessageDeleted, ConversationID: conversationID, MessageID: messageID})
	return true
}

// BeginStream puts an existing message back into streaming state. The
// continue flow uses this to extend a finished reply in place.
func (s *Store) BeginStream(conversationID, messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		return false
	}
	msg := conv.GetMessageByID(messageID)
	if msg == nil {
		return false
	}
	msg.BeginStream()
	return true
}

// Save persists a conversation to the backend immediately.
func (s *Store) Save(conversationID string) {
	s.mu.Lock()
	snap := s.cloneLocked(conversationID)
	s.mu.Unlock()
	s.persist(snap)
}
