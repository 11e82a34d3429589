package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFileOutputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "wallet.log")
	auditPath := filepath.Join(dir, "audit", "audit.log")

	err := Init(Config{
		Level:       "debug",
		Format:      "text",
		OutputPaths: []string{path},
		Audit:       AuditConfig{Enabled: true, Path: auditPath},
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = Sync() })

	Named("wallet").Debug("tool call", "tool", "get_balance")
	Audit().Info("audit entry", "tool", "send_transaction")
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "component=wallet") || !strings.Contains(string(content), "tool=get_balance") {
		t.Fatalf("unexpected log content: %s", content)
	}

	audit, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if !strings.Contains(string(audit), `"tool":"send_transaction"`) {
		t.Fatalf("unexpected audit content: %s", audit)
	}
}

func TestInitRejectsStdout(t *testing.T) {
	if err := Init(Config{OutputPaths: []string{"stdout"}}); err == nil {
		t.Fatal("expected stdout output to be rejected")
	}
}

func TestInitRequiresAuditPath(t *testing.T) {
	if err := Init(Config{Audit: AuditConfig{Enabled: true}}); err == nil {
		t.Fatal("expected error for empty audit path")
	}
}
