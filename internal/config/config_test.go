package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: test-gw
  listen: "0.0.0.0:9000"
  log_level: debug
github:
  owner: octo
  repo: proj
  token: ghp_test
  webhook_secret: s3cret
state:
  path: /tmp/test.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "test-gw" {
		t.Errorf("Service.Name = %q, want test-gw", cfg.Service.Name)
	}
	if cfg.Service.Listen != "0.0.0.0:9000" {
		t.Errorf("Service.Listen = %q, want 0.0.0.0:9000", cfg.Service.Listen)
	}
	if cfg.GitHub.WebhookSecret != "s3cret" {
		t.Errorf("GitHub.WebhookSecret = %q, want s3cret", cfg.GitHub.WebhookSecret)
	}
	if cfg.State.Path != "/tmp/test.db" {
		t.Errorf("State.Path = %q, want /tmp/test.db", cfg.State.Path)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
github:
  owner: octo
  repo: proj
  webhook_secret: s3cret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "issue-gw" {
		t.Errorf("Service.Name = %q, want issue-gw", cfg.Service.Name)
	}
	if cfg.Service.Listen != "127.0.0.1:8000" {
		t.Errorf("Service.Listen = %q, want 127.0.0.1:8000", cfg.Service.Listen)
	}
	if cfg.Service.LogLevel != "info" {
		t.Errorf("Service.LogLevel = %q, want info", cfg.Service.LogLevel)
	}
	if cfg.State.Path != "./data/issuegw.db" {
		t.Errorf("State.Path = %q, want ./data/issuegw.db", cfg.State.Path)
	}
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	t.Setenv("TEST_GW_SECRET", "from-env")
	t.Setenv("TEST_GW_TOKEN", "token-from-env")

	path := writeConfig(t, `
github:
  owner: octo
  repo: proj
  token: ${TEST_GW_TOKEN}
  webhook_secret: ${TEST_GW_SECRET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitHub.WebhookSecret != "from-env" {
		t.Errorf("WebhookSecret = %q, want from-env", cfg.GitHub.WebhookSecret)
	}
	if cfg.GitHub.Token != "token-from-env" {
		t.Errorf("Token = %q, want token-from-env", cfg.GitHub.Token)
	}
}

func TestLoadUnresolvedSecretFails(t *testing.T) {
	path := writeConfig(t, `
github:
  owner: octo
  repo: proj
  webhook_secret: ${DEFINITELY_NOT_SET_GW_VAR}
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for unresolved secret")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_GW_VAR") {
		t.Errorf("error = %v, want mention of unresolved variable name", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "service: [broken")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing owner",
			content: `
github:
  repo: proj
  webhook_secret: s
`,
			wantErr: "github.owner",
		},
		{
			name: "missing repo",
			content: `
github:
  owner: octo
  webhook_secret: s
`,
			wantErr: "github.repo",
		},
		{
			name: "missing webhook secret",
			content: `
github:
  owner: octo
  repo: proj
`,
			wantErr: "github.webhook_secret",
		},
		{
			name: "bad log level",
			content: `
service:
  log_level: verbose
github:
  owner: octo
  repo: proj
  webhook_secret: s
`,
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GITHUB_OWNER", "octo")
	t.Setenv("GITHUB_REPO", "proj")
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STATE_PATH", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.GitHub.Owner != "octo" || cfg.GitHub.Repo != "proj" {
		t.Errorf("owner/repo = %s/%s, want octo/proj", cfg.GitHub.Owner, cfg.GitHub.Repo)
	}
	if cfg.Service.Listen != "0.0.0.0:9100" {
		t.Errorf("Listen = %q, want 0.0.0.0:9100", cfg.Service.Listen)
	}
	if cfg.Service.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info default", cfg.Service.LogLevel)
	}
}

func TestFromEnvMissingSecret(t *testing.T) {
	t.Setenv("GITHUB_OWNER", "octo")
	t.Setenv("GITHUB_REPO", "proj")
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() expected error without WEBHOOK_SECRET")
	}
}
