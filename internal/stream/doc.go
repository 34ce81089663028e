// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream runs chat generations against the transcript.
//
// The Controller is the only writer of streaming content: it issues the
// completion request, applies each fragment to the target message, and
// finalizes the message with an outcome. At most one session is ever in
// flight; starting a new one cancels and joins the previous session first.
//
// Three entry points cover the user-facing flows: StartTurn submits a new
// user message against a fresh assistant placeholder, Retry regenerates
// from the most recent user message, and Continue extends an existing
// assistant reply in place.
package stream
