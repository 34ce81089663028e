// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jeranaias/tidechat/internal/openrouter"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.API.Model != openrouter.DefaultModel {
		t.Errorf("default model = %q, want %q", cfg.API.Model, openrouter.DefaultModel)
	}
	if cfg.API.BaseURL != openrouter.DefaultBaseURL {
		t.Errorf("default base URL = %q, want %q", cfg.API.BaseURL, openrouter.DefaultBaseURL)
	}
	if cfg.API.Key != "" {
		t.Error("default key should be empty")
	}
	if !cfg.Chat.DeviceContext {
		t.Error("device context should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1.0.0"

[api]
key = "sk-test"
model = "some/model"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.API.Key != "sk-test" {
		t.Errorf("key = %q, want sk-test", cfg.API.Key)
	}
	if cfg.API.Model != "some/model" {
		t.Errorf("model = %q, want some/model", cfg.API.Model)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q, want light", cfg.UI.Theme)
	}
	// Unset fields should be backfilled with defaults.
	if cfg.API.BaseURL != openrouter.DefaultBaseURL {
		t.Errorf("base URL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.Storage.MaxConversations != 100 {
		t.Errorf("max conversations = %d, want 100", cfg.Storage.MaxConversations)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
key = "file-key"
model = "file/model"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("TIDECHAT_MODEL", "env/model")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.API.Key != "env-key" {
		t.Errorf("key = %q, env override should win", cfg.API.Key)
	}
	if cfg.API.Model != "env/model" {
		t.Errorf("model = %q, env override should win", cfg.API.Model)
	}
}

func TestApiKeyEnvAliases(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("TIDECHAT_API_KEY", "tidechat-key")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.API.Key != "tidechat-key" {
		t.Errorf("key = %q, TIDECHAT_API_KEY should be honored", cfg.API.Key)
	}

	t.Setenv("OPENROUTER_API_KEY", "openrouter-key")
	cfg = Default()
	cfg.ApplyEnvOverrides()
	if cfg.API.Key != "tidechat-key" {
		t.Errorf("key = %q, TIDECHAT_API_KEY should win over OPENROUTER_API_KEY", cfg.API.Key)
	}
}

func TestLoadFixesLoosePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o after load, want 0600", perm)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.Key = "sk-roundtrip"
	cfg.UI.Theme = "light"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("saved permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.API.Key != "sk-roundtrip" {
		t.Errorf("key = %q after round trip", loaded.API.Key)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %q after round trip", loaded.UI.Theme)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad theme", func(c *Config) { c.UI.Theme = "sepia" }, "ui.theme"},
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }, "api.base_url"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs"},
		{"zero conversations", func(c *Config) { c.Storage.MaxConversations = 0 }, "storage.max_conversations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestGetSetDotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := cfg.Get("ui.theme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "light" {
		t.Errorf("ui.theme = %v, want light", got)
	}

	// String values convert to the field's type.
	if err := cfg.Set("storage.max_conversations", "50"); err != nil {
		t.Fatalf("Set int failed: %v", err)
	}
	if cfg.Storage.MaxConversations != 50 {
		t.Errorf("max_conversations = %d, want 50", cfg.Storage.MaxConversations)
	}

	if err := cfg.Set("chat.device_context", "false"); err != nil {
		t.Fatalf("Set bool failed: %v", err)
	}
	if cfg.Chat.DeviceContext {
		t.Error("device_context should be false")
	}

	if _, err := cfg.Get("nope.nothing"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestStringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.Key = "sk-secret-value"

	s := cfg.String()
	if strings.Contains(s, "sk-secret-value") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
	// Redaction must not mutate the original.
	if cfg.API.Key != "sk-secret-value" {
		t.Error("String() modified the config")
	}
}

func TestGlobalConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
