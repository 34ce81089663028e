// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bytes"
	"encoding/json"
)

// STREAMING: Robust SSE parsing with error handling

// MaxEventSize is the maximum allowed size for a single buffered SSE line (64KB)
const MaxEventSize = 64 * 1024

// dataPrefix is the SSE field marker; lines without it carry no content.
var dataPrefix = []byte("data: ")

// doneSentinel terminates the stream.
var doneSentinel = []byte("[DONE]")

// Decoder incrementally parses a byte stream framed as newline-delimited
// "data: <json>" events into text fragments.
//
// Bytes may arrive at arbitrary boundaries: a read may end mid-codepoint or
// mid-line. The decoder holds everything after the last newline in a
// carry-over buffer, so a payload split across reads is reassembled rather
// than dropped, and a multi-byte codepoint is never emitted partially
// (UTF-8 continuation bytes cannot collide with '\n', so splitting on
// newlines is codepoint-safe).
//
// The decoder is a pure function of bytes-in to fragments-out plus a
// completion flag; it knows nothing about conversations or transport.
type Decoder struct {
	pending []byte
	done    bool
}

// NewDecoder creates a decoder ready to consume the first byte buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one raw byte buffer and returns the text fragments
// completed by it, in order. After the terminal sentinel has been seen,
// further input is ignored.
func (d *Decoder) Feed(p []byte) []string {
	if d.done || len(p) == 0 {
		return nil
	}
	d.pending = append(d.pending, p...)

	var fragments []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]

		frag, ok := d.decodeLine(line)
		if d.done {
			// Stop consuming immediately, even if more bytes remain.
			d.pending = nil
			break
		}
		if ok {
			fragments = append(fragments, frag)
		}
	}

	if len(d.pending) > MaxEventSize {
		// A line this long is not a legitimate delta; drop it rather
		// than grow without bound.
		d.pending = nil
	}
	return fragments
}

// Flush processes any buffered trailing line that was never terminated by
// a newline. Call it once at end of input; end of input without the
// sentinel is normal completion.
func (d *Decoder) Flush() []string {
	if d.done || len(d.pending) == 0 {
		d.done = true
		return nil
	}
	line := d.pending
	d.pending = nil
	frag, ok := d.decodeLine(line)
	d.done = true
	if ok {
		return []string{frag}
	}
	return nil
}

// Done returns true once the terminal sentinel has been seen or the input
// was flushed.
func (d *Decoder) Done() bool {
	return d.done
}

// decodeLine extracts a fragment from one complete line. Returns ok=false
// for blank lines, non-data lines, empty deltas, and malformed JSON
// (malformed payloads are an expected transient condition, skipped
// silently).
func (d *Decoder) decodeLine(line []byte) (string, bool) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return "", false
	}
	if !bytes.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := line[len(dataPrefix):]

	if bytes.Equal(bytes.TrimSpace(payload), doneSentinel) {
		d.done = true
		return "", false
	}

	var chunk StreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false
	}
	content := chunk.GetContent()
	if content == "" {
		return "", false
	}
	return content, true
}
