// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jeranaias/tidechat/internal/model"
)

func TestBuildMessages_PersonaAlwaysFirst(t *testing.T) {
	got := BuildMessages(nil)
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if got[0].Role != "system" || got[0].Content != Persona {
		t.Error("persona system message should be the only entry for an empty transcript")
	}
}

func TestBuildMessages_Passthrough(t *testing.T) {
	msgs := []*model.Message{
		model.NewUserMessage("hello"),
		model.NewMessage(model.RoleAssistant, "hi there"),
	}
	got := BuildMessages(msgs)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[1].Role != "user" || got[1].Content != "hello" {
		t.Errorf("user entry = %+v", got[1])
	}
	if got[2].Role != "assistant" || got[2].Content != "hi there" {
		t.Errorf("assistant entry = %+v", got[2])
	}
}

func TestBuildMessages_ContextNoteBecomesSystem(t *testing.T) {
	msgs := []*model.Message{
		model.NewControlMessage(model.KindContextNote, "uploaded file: notes.txt"),
	}
	got := BuildMessages(msgs)
	entry := got[1]
	if entry.Role != "system" {
		t.Errorf("role = %q, want system", entry.Role)
	}
	if !strings.HasPrefix(entry.Content, "[SYSTEM CONTEXT]:") {
		t.Errorf("content should carry the system-context instruction, got %q", entry.Content)
	}
	if !strings.Contains(entry.Content, "uploaded file: notes.txt") {
		t.Error("stripped context content should be embedded")
	}
	if strings.Contains(entry.Content, "[CONTEXT]") {
		t.Error("wire marker should not leak into the outbound content")
	}
}

func TestBuildMessages_DeviceContextBecomesSystem(t *testing.T) {
	msgs := []*model.Message{
		model.NewControlMessage(model.KindDeviceContext, "Time: 10:30, Battery: 80%"),
	}
	got := BuildMessages(msgs)
	entry := got[1]
	if entry.Role != "system" {
		t.Errorf("role = %q, want system", entry.Role)
	}
	want := "The user's current device status is: Time: 10:30, Battery: 80%. Use this information if the user asks about their device."
	if entry.Content != want {
		t.Errorf("content = %q, want %q", entry.Content, want)
	}
}

func TestBuildMessages_ContinueStaysUserRole(t *testing.T) {
	msgs := []*model.Message{
		model.NewControlMessage(model.KindContinueRequest, "and then the tide"),
	}
	got := BuildMessages(msgs)
	entry := got[1]
	if entry.Role != "user" {
		t.Errorf("role = %q, want user", entry.Role)
	}
	want := "Please continue generating from where you left off. Here is the last part of your response: \"and then the tide\""
	if entry.Content != want {
		t.Errorf("content = %q, want %q", entry.Content, want)
	}
}

func TestBuildMessages_DropsEmptyEntries(t *testing.T) {
	empty := model.NewAssistantMessage() // streaming, no content yet
	msgs := []*model.Message{
		model.NewUserMessage("keep me"),
		empty,
	}
	got := BuildMessages(msgs)
	if len(got) != 2 {
		t.Errorf("empty entries should be dropped, got %d messages", len(got))
	}
}

func TestBuildMessages_Idempotent(t *testing.T) {
	msgs := []*model.Message{
		model.NewUserMessage("question one"),
		model.NewMessage(model.RoleAssistant, "answer one"),
		model.NewUserMessage("question two"),
	}

	once := BuildMessages(msgs)

	// Re-decoding the normalized output must not change it: persona aside,
	// a second pass yields the same list.
	reDecoded := make([]*model.Message, 0, len(once)-1)
	for _, entry := range once[1:] {
		reDecoded = append(reDecoded, model.NewMessage(model.Role(entry.Role), entry.Content))
	}
	twice := BuildMessages(reDecoded)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("BuildMessages is not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}
