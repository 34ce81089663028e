// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"errors"
	"fmt"
)

// Error variables for common client errors.
var (
	// ErrNotConfigured indicates the API key is not set. Checked before
	// any network call is made.
	ErrNotConfigured = errors.New("OpenRouter API key not configured")

	// ErrRateLimited indicates the local rate limiter rejected the call.
	ErrRateLimited = errors.New("rate limited")
)

// MissingKeyText is the fixed user-visible text for a missing credential.
const MissingKeyText = "Error: OPENROUTER_API_KEY is not set. Please add your API key to the config file."

// RemoteError represents a non-success HTTP response from OpenRouter. The
// status code and response body are surfaced verbatim.
type RemoteError struct {
	Status int
	Body   string
}

// Error implements the error interface with the fixed transcript format.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("Error: Failed to connect to OpenRouter. Status: %d. Message: %s", e.Status, e.Body)
}

// TransportError represents a network or read failure mid-stream.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotConfigured returns true if the error is a missing-credential error.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsRemote returns true if the error is a non-2xx HTTP response.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsCancelled returns true if the error represents caller cancellation
// rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// UserText converts a client error into the text shown in the transcript.
// Cancellation is not an error and yields no text.
func UserText(err error) string {
	switch {
	case err == nil || IsCancelled(err):
		return ""
	case IsNotConfigured(err):
		return MissingKeyText
	case IsRemote(err):
		return err.Error()
	default:
		return "Sorry, I am having trouble connecting to the AI. Error: " + err.Error()
	}
}
