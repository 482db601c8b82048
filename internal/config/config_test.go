package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "DB_PATH", "OUTPUT_DIR", "INBOX_DIR", "MATCH_THRESHOLD", "LOG_LEVEL", "LOG_FORMAT",
		"HTTP_ADDR", "HTTP_MAX_UPLOAD_MB", "HTTP_READ_TIMEOUT_SEC", "LISTENER_INTERVAL_SEC", "LISTENER_AUTO_EXPORT",
		"MAIL_PROVIDER", "MAIL_LABEL", "MAIL_FETCH_MAX", "IMAP_PORT", "IMAP_SECURE",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MatchThreshold != DefaultThreshold || cfg.LogFormat != "text" || !cfg.ListenerAutoExport {
		t.Fatalf("cfg=%+v", cfg)
	}
	if filepath.Base(cfg.DBPath) != "app.db" {
		t.Fatalf("db=%s", cfg.DBPath)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)
	path := filepath.Join(dir, "shipmatch.yaml")
	body := "match_threshold: 70\nlog_format: json\nhttp_addr: \":9000\"\nlistener_auto_export: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MATCH_THRESHOLD", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MatchThreshold != 90 {
		t.Fatalf("env should win over file: %v", cfg.MatchThreshold)
	}
	if cfg.LogFormat != "json" || cfg.HTTPAddr != ":9000" || cfg.ListenerAutoExport {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadRejectsThreshold(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	t.Setenv("MATCH_THRESHOLD", "120")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 50, 85, 100} {
		if err := ValidateThreshold(v); err != nil {
			t.Fatalf("%v: %v", v, err)
		}
	}
	for _, v := range []float64{-1, 100.5} {
		if ValidateThreshold(v) == nil {
			t.Fatalf("%v accepted", v)
		}
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn: %s", buf.String())
	}
	Config{LogLevel: "nonsense", LogFormat: "json"}.Logger(&buf).Info("shown", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("out=%s", buf.String())
	}
}

func TestLoadMailProvider(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	t.Setenv("MAIL_PROVIDER", " IMAP ")
	t.Setenv("IMAP_SECURE", "off")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MailProvider != "imap" || cfg.IMAPSecure || cfg.IMAPPort != 993 || cfg.MailLabel != "INBOX" {
		t.Fatalf("cfg=%+v", cfg)
	}

	t.Setenv("MAIL_PROVIDER", "pop3")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}
