package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envToken, envAPIURL} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	isolateEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if !cfg.CanAllocate {
		t.Fatalf("CanAllocate = false, want true by default")
	}
	if cfg.Timeout != defaultTimeout || cfg.PollInterval != defaultPoll {
		t.Fatalf("Timeout/Poll = %v/%v, want %v/%v", cfg.Timeout, cfg.PollInterval, defaultTimeout, defaultPoll)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if !strings.HasPrefix(cfg.PrefsFile, home) {
		t.Fatalf("PrefsFile = %q, want it under HOME %q", cfg.PrefsFile, home)
	}
}

func TestLoad_ParsesAndTrimsTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://crm.example.com/api/v1  "
token = "  abc123  "
user_id = 92
company = 2
can_allocate = false
timeout = "3s"
poll = "1m"
log_file = "  ~/.leaddeck/app.log  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://crm.example.com/api/v1" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Token != "abc123" {
		t.Fatalf("Token = %q, want abc123", cfg.Token)
	}
	if cfg.UserID != 92 || cfg.Company != 2 || cfg.CanAllocate {
		t.Fatalf("filter = %d/%d/%v, want 92/2/false", cfg.UserID, cfg.Company, cfg.CanAllocate)
	}
	if cfg.Timeout != 3*time.Second || cfg.PollInterval != time.Minute {
		t.Fatalf("Timeout/Poll = %v/%v", cfg.Timeout, cfg.PollInterval)
	}
	if cfg.LogFile != filepath.Join(home, ".leaddeck/app.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`
api_url: https://crm.example.com/api
token: yaml-token
user_id: 5
company: 9
timeout: 250ms
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Token != "yaml-token" || cfg.UserID != 5 || cfg.Company != 9 {
		t.Fatalf("cfg = %#v", cfg)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("Timeout = %v, want 250ms", cfg.Timeout)
	}
	if !cfg.CanAllocate {
		t.Fatalf("CanAllocate = false, want default true")
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`timeout = "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "invalid timeout") {
		t.Fatalf("Load error = %v, want invalid timeout", err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	isolateEnv(t)
	t.Setenv(envToken, "from-env")
	t.Setenv(envAPIURL, "http://localhost:9000")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`token = "from-file"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Token != "from-env" || cfg.APIURL != "http://localhost:9000" {
		t.Fatalf("Token/APIURL = %q/%q, want env values", cfg.Token, cfg.APIURL)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	isolateEnv(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("# creds\nexport LEADDECK_TOKEN=\"dotenv-token\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Token != "dotenv-token" {
		t.Fatalf("Token = %q, want dotenv-token", cfg.Token)
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("LEADDECK_TEST_KEY", "kept")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LEADDECK_TEST_KEY=replaced\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv("LEADDECK_TEST_KEY"); got != "kept" {
		t.Fatalf("LEADDECK_TEST_KEY = %q, want kept", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv(missing) returned error: %v", err)
	}
}

func TestLoadDotEnv_QuotesAndInlineComments(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LEADDECK_TEST_MIXED", "")
	_ = os.Unsetenv("LEADDECK_TEST_MIXED")

	path := filepath.Join(t.TempDir(), ".env")
	content := `LEADDECK_TOKEN="tok#en with space" # issued 2026
LEADDECK_API_URL=https://crm.example.com/api/v1 # staging
LEADDECK_TEST_MIXED='single "quoted"'
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{envToken, "tok#en with space"},
		{envAPIURL, "https://crm.example.com/api/v1"},
		{"LEADDECK_TEST_MIXED", `single "quoted"`},
	}
	for _, tt := range tests {
		if got := os.Getenv(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadDotEnv_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LEADDECK_TEST_BAD=\"unterminated\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := LoadDotEnv(path); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Validate error = %v, want ErrMissingToken", err)
	}
	cfg.Token = "t"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "user_id") {
		t.Fatalf("Validate error = %v, want user_id error", err)
	}
	cfg.UserID = 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "company") {
		t.Fatalf("Validate error = %v, want company error", err)
	}
	cfg.Company = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
