// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files turns uploaded files into chat messages.
//
// A text file becomes a message carrying its full content so the model
// can discuss it. Images and other binary files become a short notice
// instead, matching what the assistant can actually see.
package files

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxFileSize caps how much of an uploaded file is read.
const MaxFileSize = 512 * 1024

// FileKind classifies an upload for summarization.
type FileKind int

const (
	KindText FileKind = iota
	KindImage
	KindBinary
)

// String returns the kind name.
func (k FileKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "binary"
	}
}

// Summary is the chat-ready description of an uploaded file.
type Summary struct {
	// Name is the file's base name
	Name string
	// Kind is the detected file kind
	Kind FileKind
	// ContentType is the detected MIME type
	ContentType string
	// Message is the text submitted as the user's turn
	Message string
}

// Summarize reads a file and builds the message describing it.
func Summarize(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", info.Size(), MaxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	contentType := detectContentType(name, data)

	summary := &Summary{
		Name:        name,
		ContentType: contentType,
	}

	switch {
	case strings.HasPrefix(contentType, "image/"):
		summary.Kind = KindImage
		summary.Message = fmt.Sprintf(
			"Done. The user uploaded an image named %q. I cannot see the image itself, only its name and type (%s).",
			name, contentType)
	case isTextContent(contentType, data):
		summary.Kind = KindText
		text, err := decodeText(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode text: %w", err)
		}
		summary.Message = fmt.Sprintf(
			"Done. The user uploaded a file named %q. The content is:\n\n---\n\n%s",
			name, text)
	default:
		summary.Kind = KindBinary
		summary.Message = fmt.Sprintf(
			"Done. The user uploaded a non-text file named %q of type %q. I cannot read its content.",
			name, contentType)
	}

	return summary, nil
}

// detectContentType resolves a MIME type from the extension, falling back
// to content sniffing.
func detectContentType(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if mt, _, err := mime.ParseMediaType(byExt); err == nil {
				return mt
			}
		}
	}

	sniffed := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mt
	}
	return "application/octet-stream"
}

// isTextContent reports whether the file should be read as text. Known
// text MIME types qualify, as does anything that decodes cleanly.
func isTextContent(contentType string, data []byte) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	switch contentType {
	case "application/json", "application/xml", "application/javascript",
		"application/x-sh", "application/toml", "application/yaml":
		return true
	}
	if _, err := decodeText(data); err == nil {
		return true
	}
	return false
}

// decodeText converts file bytes to a UTF-8 string, honoring UTF-16/UTF-8
// byte order marks. Bytes that still are not valid UTF-8 after BOM
// handling are rejected as binary.
func decodeText(data []byte) (string, error) {
	decoder := unicode.UTF8.NewDecoder()
	if len(data) >= 2 {
		switch {
		case data[0] == 0xFE && data[1] == 0xFF:
			decoder = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		case data[0] == 0xFF && data[1] == 0xFE:
			decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}):
			decoder = unicode.UTF8BOM.NewDecoder()
		}
	}

	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) || bytes.ContainsRune(decoded, 0) {
		return "", fmt.Errorf("content is not text")
	}
	return string(decoded), nil
}
