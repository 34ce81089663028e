// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/tidechat/internal/model"
	"github.com/jeranaias/tidechat/internal/openrouter"
	"github.com/jeranaias/tidechat/internal/transcript"
)

// sseEvents renders fragments as data events without the terminal
// sentinel, for mocks that must leave the stream open.
func sseEvents(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		payload, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"delta": map[string]string{"content": f}},
			},
		})
		fmt.Fprintf(&b, "data: %s\n\n", payload)
	}
	return b.String()
}

// sseBody renders fragments as a complete event stream.
func sseBody(fragments ...string) string {
	return sseEvents(fragments...) + "data: [DONE]\n\n"
}

// newTestRig wires a controller to a mock completion server and records
// the request bodies it receives.
func newTestRig(t *testing.T, handler http.HandlerFunc) (*Controller, *transcript.Store, chan Result) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openrouter.NewClient("test-key").WithBaseURL(server.URL).WithRateLimit(nil)
	store := transcript.NewStore()

	results := make(chan Result, 4)
	ctrl := NewController(client, store).OnComplete(func(r Result) {
		results <- r
	})
	return ctrl, store, results
}

func waitResult(t *testing.T, results chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session result")
		return Result{}
	}
}

func TestStartTurnStreamsReply(t *testing.T) {
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody("Hel", "lo", " there"))
	})

	conv := store.Active()
	msgID, err := ctrl.StartTurn(conv.ID, "hi")
	if err != nil {
		t.Fatalf("StartTurn failed: %v", err)
	}

	res := waitResult(t, results)
	if res.Outcome != OutcomeCompleted {
		t.Errorf("outcome = %v, want completed", res.Outcome)
	}
	if res.MessageID != msgID {
		t.Errorf("result message = %q, want %q", res.MessageID, msgID)
	}

	target := conv.GetMessageByID(msgID)
	if target == nil {
		t.Fatal("placeholder missing from conversation")
	}
	if got := target.GetDisplayContent(); got != "Hello there" {
		t.Errorf("content = %q, want %q", got, "Hello there")
	}
	if target.IsStreaming {
		t.Error("message still marked streaming after completion")
	}
	if ctrl.State() != StateIdle {
		t.Errorf("state = %v after completion, want idle", ctrl.State())
	}
}

func TestStartTurnTranscriptShape(t *testing.T) {
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody("ok"))
	})
	ctrl.WithDeviceContext(func() string { return "Battery: 80%" })

	conv := store.Active()
	if _, err := ctrl.StartTurn(conv.ID, "what's my battery?"); err != nil {
		t.Fatalf("StartTurn failed: %v", err)
	}
	waitResult(t, results)

	// Device control message, user message, assistant reply, in order.
	if len(conv.Messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(conv.Messages))
	}
	if conv.Messages[0].Kind != model.KindDeviceContext {
		t.Errorf("first message kind = %v, want device context", conv.Messages[0].Kind)
	}
	if conv.Messages[1].Role != model.RoleUser || conv.Messages[1].Content != "what's my battery?" {
		t.Errorf("second message = %+v, want plain user message", conv.Messages[1])
	}
	if conv.Messages[2].Role != model.RoleAssistant {
		t.Errorf("third message role = %v, want assistant", conv.Messages[2].Role)
	}
}

func TestCancelAppendsSuffix(t *testing.T) {
	firstSent := make(chan struct{})
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseEvents("Once upon"))
		w.(http.Flusher).Flush()
		close(firstSent)
		<-r.Context().Done()
	})

	fragments := make(chan string, 8)
	ctrl.OnFragment(func(_, _, fragment string) { fragments <- fragment })

	conv := store.Active()
	msgID, err := ctrl.StartTurn(conv.ID, "tell me a story")
	if err != nil {
		t.Fatalf("StartTurn failed: %v", err)
	}

	select {
	case <-fragments:
	case <-time.After(5 * time.Second):
		t.Fatal("no fragment arrived before cancel")
	}
	ctrl.Cancel()

	res := waitResult(t, results)
	if res.Outcome != OutcomeCancelled {
		t.Errorf("outcome = %v, want cancelled", res.Outcome)
	}

	target := conv.GetMessageByID(msgID)
	got := target.GetDisplayContent()
	if got != "Once upon"+CancelledSuffix {
		t.Errorf("content = %q, want fragments plus cancelled suffix", got)
	}
	if target.IsStreaming {
		t.Error("message still streaming after cancel")
	}
	<-firstSent
}

func TestRetryRegeneratesFromLastUserMessage(t *testing.T) {
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody("second answer"))
	})

	conv := store.Active()
	store.Append(conv.ID, model.NewUserMessage("hi"))
	stale := model.NewMessage(model.RoleAssistant, "first answer")
	store.Append(conv.ID, stale)

	msgID, err := ctrl.Retry(conv.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	waitResult(t, results)

	if conv.GetMessageByID(stale.ID) != nil {
		t.Error("stale assistant reply survived retry")
	}
	target := conv.GetMessageByID(msgID)
	if target == nil || target.GetDisplayContent() != "second answer" {
		t.Errorf("retry target = %+v, want fresh reply", target)
	}
	if len(conv.Messages) != 2 {
		t.Errorf("message count = %d, want 2", len(conv.Messages))
	}
}

func TestRetryWithoutUserMessage(t *testing.T) {
	ctrl, store, _ := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued")
	})

	conv := store.Active()
	if _, err := ctrl.Retry(conv.ID); err != transcript.ErrNoUserMessage {
		t.Errorf("err = %v, want ErrNoUserMessage", err)
	}
}

func TestContinueExtendsInPlace(t *testing.T) {
	var mu sync.Mutex
	var lastRequest openrouter.ChatRequest

	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		var req openrouter.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		lastRequest = req
		mu.Unlock()
		fmt.Fprint(w, sseBody(" and more"))
	})

	conv := store.Active()
	store.Append(conv.ID, model.NewUserMessage("hi"))
	reply := model.NewMessage(model.RoleAssistant, "partial text")
	store.Append(conv.ID, reply)
	before := len(conv.Messages)

	if err := ctrl.Continue(conv.ID, reply.ID); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	waitResult(t, results)

	if got := reply.GetDisplayContent(); got != "partial text and more" {
		t.Errorf("content = %q, want appended continuation", got)
	}
	if len(conv.Messages) != before {
		t.Errorf("message count changed from %d to %d, continue must not add messages", before, len(conv.Messages))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lastRequest.Messages) == 0 {
		t.Fatal("no request captured")
	}
	last := lastRequest.Messages[len(lastRequest.Messages)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "Please continue generating") ||
		!strings.Contains(last.Content, "partial text") {
		t.Errorf("last outbound message = %+v, want continue request embedding prior text", last)
	}
}

func TestContinueUnknownMessage(t *testing.T) {
	ctrl, store, _ := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued")
	})

	conv := store.Active()
	if err := ctrl.Continue(conv.ID, "msg_missing"); err != transcript.ErrNoMessage {
		t.Errorf("err = %v, want ErrNoMessage", err)
	}
}

func TestServerErrorBecomesReply(t *testing.T) {
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "server overloaded")
	})

	conv := store.Active()
	msgID, err := ctrl.StartTurn(conv.ID, "hi")
	if err != nil {
		t.Fatalf("StartTurn failed: %v", err)
	}

	res := waitResult(t, results)
	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want failed", res.Outcome)
	}

	target := conv.GetMessageByID(msgID)
	want := "Error: Failed to connect to OpenRouter. Status: 500. Message: server overloaded"
	if got := target.GetDisplayContent(); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestMissingKeyBecomesReply(t *testing.T) {
	client := openrouter.NewClient("").WithRateLimit(nil)
	store := transcript.NewStore()
	results := make(chan Result, 1)
	ctrl := NewController(client, store).OnComplete(func(r Result) { results <- r })

	conv := store.Active()
	msgID, err := ctrl.StartTurn(conv.ID, "hi")
	if err != nil {
		t.Fatalf("StartTurn failed: %v", err)
	}

	res := waitResult(t, results)
	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome = %v, want failed", res.Outcome)
	}
	target := conv.GetMessageByID(msgID)
	if got := target.GetDisplayContent(); got != openrouter.MissingKeyText {
		t.Errorf("content = %q, want missing-key text", got)
	}
}

func TestNewTurnCancelsPrevious(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	ctrl, store, results := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			fmt.Fprint(w, sseEvents("slow"))
			w.(http.Flusher).Flush()
			<-r.Context().Done()
			return
		}
		<-release
		fmt.Fprint(w, sseBody("fast"))
	})

	fragments := make(chan string, 8)
	ctrl.OnFragment(func(_, _, fragment string) { fragments <- fragment })

	conv := store.Active()
	firstID, err := ctrl.StartTurn(conv.ID, "one")
	if err != nil {
		t.Fatalf("first StartTurn failed: %v", err)
	}
	select {
	case <-fragments:
	case <-time.After(5 * time.Second):
		t.Fatal("first session never streamed")
	}

	secondID, err := ctrl.StartTurn(conv.ID, "two")
	if err != nil {
		t.Fatalf("second StartTurn failed: %v", err)
	}
	close(release)

	// First result is the cancelled session, second the fresh one.
	first := waitResult(t, results)
	if first.MessageID != firstID || first.Outcome != OutcomeCancelled {
		t.Errorf("first result = %+v, want cancelled %q", first, firstID)
	}
	second := waitResult(t, results)
	if second.MessageID != secondID || second.Outcome != OutcomeCompleted {
		t.Errorf("second result = %+v, want completed %q", second, secondID)
	}

	if got := conv.GetMessageByID(firstID).GetDisplayContent(); got != "slow"+CancelledSuffix {
		t.Errorf("first reply = %q, want cancelled suffix", got)
	}
	if got := conv.GetMessageByID(secondID).GetDisplayContent(); got != "fast" {
		t.Errorf("second reply = %q, want %q", got, "fast")
	}
}
