// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream orchestrates the lifecycle of one in-flight generation.
package stream

import (
	"context"
	"sync"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/openrouter"
	"github.com/jeranaias/tidechat/internal/prompt"
	"github.com/jeranaias/tidechat/internal/transcript"
)

// =============================================================================
// STATES AND OUTCOMES
// =============================================================================

// State is the controller's position in the generation lifecycle.
type State int

const (
	// StateIdle means no generation is in flight.
	StateIdle State = iota
	// StateRequesting means the completion request has been issued but no
	// fragment has arrived yet.
	StateRequesting
	// StateStreaming means fragments are being applied to the target
	// message. This is the only state in which the transcript is mutated
	// mid-flight.
	StateStreaming
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// Outcome is the terminal result of one session.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "completed"
	}
}

// CancelledSuffix is appended to the target message when the user aborts
// a generation.
const CancelledSuffix = " (Cancelled)"

// streamErrorPrefix introduces an error that interrupted an already
// partially delivered reply.
const streamErrorPrefix = "\n\n[STREAM ERROR]: "

// Result describes a finished session.
type Result struct {
	ConversationID string
	MessageID      string
	Outcome        Outcome
	Err            error
}

// FragmentFunc observes each fragment as it is applied to the transcript.
type FragmentFunc func(conversationID, messageID, fragment string)

// CompleteFunc observes the terminal result of a session.
type CompleteFunc func(Result)

// DeviceContextFunc supplies the device snapshot embedded in a new turn's
// control message. Returning "" skips the control message.
type DeviceContextFunc func() string

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the lifecycle of at most one in-flight generation. The
// single-session invariant is enforced explicitly: starting a new session
// cancels the previous one and waits for it to finish before the new
// request is issued, so two sessions never mutate the transcript at once.
type Controller struct {
	client *openrouter.Client
	store  *transcript.Store

	mu      sync.Mutex
	state   State
	done    chan struct{} // closed when the active session's goroutine exits
	cancels *cancelManager

	deviceContext DeviceContextFunc
	onFragment    FragmentFunc
	onComplete    CompleteFunc
}

// NewController creates a controller bound to a client and a transcript
// store.
func NewController(client *openrouter.Client, store *transcript.Store) *Controller {
	return &Controller{
		client:  client,
		store:   store,
		state:   StateIdle,
		cancels: newCancelManager(),
	}
}

// WithDeviceContext sets the device snapshot provider for new turns.
func (c *Controller) WithDeviceContext(fn DeviceContextFunc) *Controller {
	c.deviceContext = fn
	return c
}

// OnFragment registers a per-fragment observer.
func (c *Controller) OnFragment(fn FragmentFunc) *Controller {
	c.onFragment = fn
	return c
}

// OnComplete registers a session-result observer.
func (c *Controller) OnComplete(fn CompleteFunc) *Controller {
	c.onComplete = fn
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsStreaming reports whether a session is in flight.
func (c *Controller) IsStreaming() bool {
	return c.State() != StateIdle
}

// Cancel aborts the in-flight session, if any. The session finalizes with
// OutcomeCancelled and the target message gains the cancelled suffix.
func (c *Controller) Cancel() {
	c.cancels.cancel()
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// StartTurn submits a new user message: the outbound list is the full
// transcript plus a device-context control message plus the new user
// message, and the target is a fresh assistant placeholder. Returns the
// placeholder's ID.
func (c *Controller) StartTurn(conversationID, userInput string) (string, error) {
	if c.store.Get(conversationID) == nil {
		return "", transcript.ErrNoConversation
	}

	c.replaceSession()

	if c.deviceContext != nil {
		if snapshot := c.deviceContext(); snapshot != "" {
			c.store.Append(conversationID, model.NewControlMessage(model.KindDeviceContext, snapshot))
		}
	}
	c.store.Append(conversationID, model.NewUserMessage(userInput))

	target := model.NewAssistantMessage()
	c.store.Append(conversationID, target)

	conv := c.store.Snapshot(conversationID)
	c.launch(conversationID, target.ID, conv.Messages)
	return target.ID, nil
}

// Retry restarts generation from the most recent non-control user
// message: everything after it is deleted and a fresh placeholder becomes
// the target. Returns the placeholder's ID.
func (c *Controller) Retry(conversationID string) (string, error) {
	if c.store.Get(conversationID) == nil {
		return "", transcript.ErrNoConversation
	}

	c.replaceSession()

	conv := c.store.Snapshot(conversationID)
	last := conv.GetLastPlainUserMessage()
	if last == nil {
		return "", transcript.ErrNoUserMessage
	}
	c.store.DeleteAfter(conversationID, last.ID)

	target := model.NewAssistantMessage()
	c.store.Append(conversationID, target)

	conv = c.store.Snapshot(conversationID)
	c.launch(conversationID, target.ID, conv.Messages)
	return target.ID, nil
}

// Continue extends an existing assistant message in place: the outbound
// list is the transcript up to and including the target plus a synthesized
// continue-request embedding its current content, and new fragments are
// appended to the existing text. The synthesized message never enters the
// transcript.
func (c *Controller) Continue(conversationID, messageID string) error {
	if c.store.Get(conversationID) == nil {
		return transcript.ErrNoConversation
	}

	c.replaceSession()

	conv := c.store.Snapshot(conversationID)
	target := conv.GetMessageByID(messageID)
	if target == nil || target.Role != model.RoleAssistant {
		return transcript.ErrNoMessage
	}

	prefix := conv.MessagesUpTo(messageID)
	outbound := append(prefix, model.NewControlMessage(model.KindContinueRequest, target.Content))

	c.store.BeginStream(conversationID, messageID)

	c.launch(conversationID, messageID, outbound)
	return nil
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// replaceSession enforces the at-most-one-in-flight invariant: any prior
// session is cancelled and its goroutine joined before the caller builds
// the next outbound list.
func (c *Controller) replaceSession() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		c.cancels.cancel()
		<-done
	}
}

// launch starts the streaming goroutine for one session. The outbound
// messages are store snapshots, so the goroutine reads a stable view.
func (c *Controller) launch(conversationID, targetID string, outbound []*model.Message) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.state = StateRequesting
	c.done = done
	c.mu.Unlock()
	c.cancels.set(cancel)

	go func() {
		defer close(done)
		c.run(ctx, conversationID, targetID, outbound)
	}()
}

// run executes one session and finalizes the target message. All failure
// kinds are converted into visible transcript text; nothing is thrown
// past this boundary.
func (c *Controller) run(ctx context.Context, conversationID, targetID string, outbound []*model.Message) {
	messages := prompt.BuildMessages(outbound)

	gotFragment := false
	err := c.client.ChatStream(ctx, messages, func(fragment string) {
		if !gotFragment {
			gotFragment = true
			c.mu.Lock()
			c.state = StateStreaming
			c.mu.Unlock()
		}
		c.store.AppendContent(conversationID, targetID, fragment)
		if c.onFragment != nil {
			c.onFragment(conversationID, targetID, fragment)
		}
	})

	outcome := OutcomeCompleted
	switch {
	case err == nil:
		// Terminal sentinel or input exhaustion: normal completion.
	case openrouter.IsCancelled(err):
		outcome = OutcomeCancelled
		c.store.AppendContent(conversationID, targetID, CancelledSuffix)
	case gotFragment:
		// Mid-stream failure: annotate the partial reply.
		outcome = OutcomeFailed
		c.store.AppendContent(conversationID, targetID, streamErrorPrefix+err.Error())
	default:
		// Nothing was delivered; the error text becomes the reply.
		outcome = OutcomeFailed
		c.store.AppendContent(conversationID, targetID, openrouter.UserText(err))
	}

	c.store.FinalizeMessage(conversationID, targetID)

	c.cancels.clear()
	c.mu.Lock()
	c.state = StateIdle
	c.done = nil
	c.mu.Unlock()

	if c.onComplete != nil {
		c.onComplete(Result{
			ConversationID: conversationID,
			MessageID:      targetID,
			Outcome:        outcome,
			Err:            err,
		})
	}
}
