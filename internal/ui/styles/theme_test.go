// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeWithMode(t *testing.T) {
	dark := NewThemeWithMode(ModeDark)
	if !dark.IsDark {
		t.Error("ModeDark should set IsDark")
	}

	light := NewThemeWithMode(ModeLight)
	if light.IsDark {
		t.Error("ModeLight should clear IsDark")
	}
}

func TestThemeLayoutModes(t *testing.T) {
	theme := NewThemeWithMode(ModeDark)

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestRenderStatusIndicators(t *testing.T) {
	if s := RenderSuccess("saved"); !strings.Contains(s, "[OK]") || !strings.Contains(s, "saved") {
		t.Errorf("RenderSuccess output missing indicator or message: %q", s)
	}
	if s := RenderError("failed"); !strings.Contains(s, "[X]") {
		t.Errorf("RenderError output missing indicator: %q", s)
	}
	if s := RenderWarning("careful"); !strings.Contains(s, "[!]") {
		t.Errorf("RenderWarning output missing indicator: %q", s)
	}
	if s := RenderStatus(true, "ok"); !strings.Contains(s, "[OK]") {
		t.Errorf("RenderStatus(true) should use the success indicator: %q", s)
	}
	if s := RenderStatus(false, "bad"); !strings.Contains(s, "[X]") {
		t.Errorf("RenderStatus(false) should use the error indicator: %q", s)
	}
}
