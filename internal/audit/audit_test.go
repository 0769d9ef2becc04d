package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/54b3r/docrag/internal/config"
)

func TestLogCommandStart_RedactsSecrets(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Model.OpenAI.APIKey = "sk-abc123"
	cfg.Weaviate.APIKey = ""
	cfg.Path = "/etc/docrag.yaml"

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	LogCommandStart(context.Background(), log, "run", cfg)

	if bytes.Contains(buf.Bytes(), []byte("sk-abc123")) {
		t.Fatal("secret value leaked into the audit log")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	want := map[string]string{
		"msg":              "audit: command start",
		"command":          "run",
		"config_file":      "/etc/docrag.yaml",
		"openai_api_key":   "set",
		"weaviate_api_key": "unset",
		"backend":          "local",
		"answer_mode":      "unset",
		"qdrant_port":      "6334",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestPresence(t *testing.T) {
	t.Parallel()
	if got := presence("something"); got != "set" {
		t.Errorf("expected 'set', got %q", got)
	}
	if got := presence(""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestValOrUnset(t *testing.T) {
	t.Parallel()
	if got := valOrUnset("azure"); got != "azure" {
		t.Errorf("expected 'azure', got %q", got)
	}
	if got := valOrUnset(""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestSanitiseConfigPath(t *testing.T) {
	t.Parallel()
	if got := sanitiseConfigPath(""); got != "none" {
		t.Errorf("expected 'none', got %q", got)
	}
	if got := sanitiseConfigPath("/tmp/config.yaml"); got != "/tmp/config.yaml" {
		t.Errorf("expected '/tmp/config.yaml', got %q", got)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		p := home + "/.docrag/config.yaml"
		if got := sanitiseConfigPath(p); got != "~/.docrag/config.yaml" {
			t.Errorf("expected '~/.docrag/config.yaml', got %q", got)
		}
	}
}
