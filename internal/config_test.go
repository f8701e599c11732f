package internal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stella-dust/zolapub/internal/reconcile"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Root = "/vault"
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFullConfig_DefaultsNeedVaultRoot(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "vault:") {
		t.Fatalf("err = %v, want vault error", err)
	}

	cfg.Vault.Root = "/vault"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a vault root should pass: %v", err)
	}
}

func TestSyncConfig_Mode(t *testing.T) {
	for mode, ok := range map[string]bool{"one-way": true, "two-way": true, "both": false, "": false} {
		cfg := SyncConfig{Mode: mode}
		if err := cfg.Validate(); (err == nil) != ok {
			t.Errorf("mode %q: err = %v", mode, err)
		}
	}
}

func TestConfig_SyncSettings(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Root = "/vault"
	cfg.Site.Root = "/site"
	cfg.Sync.Mode = string(reconcile.TwoWay)
	cfg.Sync.Exclude = []string{"draft-*"}

	got := cfg.SyncSettings()
	want := reconcile.Settings{
		VaultRoot:       "/vault",
		VaultPostsPath:  "blog/posts",
		VaultImagesPath: "blog/post_imgs",
		SiteRoot:        "/site",
		SitePostsPath:   "content/posts",
		SiteImagesPath:  "static/post_imgs",
		Policy:          reconcile.TwoWay,
		Exclude:         []string{"draft-*"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SyncSettings() mismatch (-want +got):\n%s", diff)
	}

	// The snapshot does not alias the config.
	got.Exclude[0] = "changed"
	if cfg.Sync.Exclude[0] != "draft-*" {
		t.Error("SyncSettings shares the exclude slice")
	}
}
