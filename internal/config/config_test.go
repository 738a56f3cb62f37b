package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
zvm_url: https://zvm.example.local/
auth:
  version: "10.x"
  client_id: reporter
  client_secret: ${ZVM_TEST_SECRET}
verify_tls: true
output_dir: ./reports
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %T: %v", err, err)
	}
	return cfgErr.Kind
}

func TestLoadValid(t *testing.T) {
	t.Setenv("ZVM_TEST_SECRET", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ZVMURL != "https://zvm.example.local" {
		t.Fatalf("unexpected zvm url: %s", cfg.ZVMURL)
	}
	if cfg.Auth.ClientSecret != "s3cret" {
		t.Fatalf("secret not expanded: %q", cfg.Auth.ClientSecret)
	}
	if !cfg.VerifyTLS {
		t.Fatalf("verify_tls must be true")
	}
	if cfg.TimeoutSeconds != 60 {
		t.Fatalf("default timeout expected, got %d", cfg.TimeoutSeconds)
	}
	if cfg.AlertThresholds.UtilizationWarn != 0.80 || cfg.AlertThresholds.UtilizationCrit != 0.95 {
		t.Fatalf("unexpected thresholds: %+v", cfg.AlertThresholds)
	}
	if cfg.History.Path != filepath.Join("reports", "history.json") {
		t.Fatalf("unexpected history path: %s", cfg.History.Path)
	}
	if got := cfg.Get("auth.version", ""); got != AuthOIDC {
		t.Fatalf("Get(auth.version) = %v", got)
	}
	if got := cfg.Get("auth.missing.deeper", "fallback"); got != "fallback" {
		t.Fatalf("Get default = %v", got)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	if got := string(ExpandEnv([]byte("value: ${FOO}"))); got != "value: bar" {
		t.Fatalf("expanded = %q", got)
	}

	os.Unsetenv("ZVM_SURELY_UNSET")
	if got := string(ExpandEnv([]byte("value: ${ZVM_SURELY_UNSET}"))); got != "value: ${ZVM_SURELY_UNSET}" {
		t.Fatalf("unset var should stay verbatim, got %q", got)
	}

	t.Setenv("EMPTY_VAR", "")
	if got := string(ExpandEnv([]byte("a${EMPTY_VAR}b"))); got != "ab" {
		t.Fatalf("empty var should expand to nothing, got %q", got)
	}
}

func TestLoadKeepsUnresolvedPlaceholder(t *testing.T) {
	os.Unsetenv("ZVM_TEST_SECRET")
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.ClientSecret != "${ZVM_TEST_SECRET}" {
		t.Fatalf("expected literal placeholder, got %q", cfg.Auth.ClientSecret)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ZVM_TEST_SECRET=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("ZVM_TEST_SECRET")
	t.Cleanup(func() { os.Unsetenv("ZVM_TEST_SECRET") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.ClientSecret != "from-dotenv" {
		t.Fatalf("expected .env value, got %q", cfg.Auth.ClientSecret)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    Kind
		field   string
	}{
		{"empty", "", KindMissingField, ""},
		{"parse", "zvm_url: [unterminated", KindParse, ""},
		{"missing output dir", "zvm_url: x\nauth: {version: pre-10}\nverify_tls: false\n", KindMissingField, "output_dir"},
		{"missing verify tls", "zvm_url: x\nauth: {version: pre-10}\noutput_dir: out\n", KindMissingField, "verify_tls"},
		{"bad auth version", "zvm_url: x\nauth: {version: '9.5'}\nverify_tls: true\noutput_dir: out\n", KindInvalidValue, "auth.version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := kindOf(t, err); got != tt.kind {
				t.Fatalf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
			var cfgErr *Error
			errors.As(err, &cfgErr)
			if tt.field != "" && cfgErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if got := kindOf(t, err); got != KindMissingFile {
		t.Fatalf("kind = %s", got)
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if cfg.GetTimeout().Seconds() != 60 {
		t.Fatalf("timeout = %s", cfg.GetTimeout())
	}
	if cfg.GetCacheTTL().Minutes() != 5 {
		t.Fatalf("cache ttl = %s", cfg.GetCacheTTL())
	}
	t.Setenv("PORT", "9999")
	if cfg.GetPort() != "9999" {
		t.Fatalf("PORT env should win, got %s", cfg.GetPort())
	}
}
