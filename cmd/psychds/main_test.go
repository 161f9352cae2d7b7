package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
)

func TestCLISessionCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	first := testsupport.NewSession(t, env.store, "Memory Study")
	second := testsupport.NewSession(t, env.store, "Sleep Study")

	out, _, err := runCLI(t, []string{"session", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	requireContains(t, out, "Memory Study")
	requireContains(t, out, "Sleep Study")
	requireContains(t, out, "active")

	out, _, err = runCLI(t, []string{"session", "show", first.ID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	requireContains(t, out, first.ID)
	requireContains(t, out, "Memory Study")
	requireContains(t, out, "Step:       1 (max visited 1)")

	out, _, err = runCLI(t, []string{"session", "show", second.ID, "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("session show --json: %v", err)
	}
	requireContains(t, out, `"name": "Sleep Study"`)
	requireContains(t, out, `"step": 1`)

	out, _, err = runCLI(t, []string{"session", "delete", first.ID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("session delete: %v", err)
	}
	requireContains(t, out, "Session "+first.ID+" deleted")

	if sess, err := env.store.GetByID(ctx, first.ID); err != nil || sess != nil {
		t.Fatalf("expected session gone after delete, got %v (err %v)", sess, err)
	}

	_, _, err = runCLI(t, []string{"session", "show", first.ID}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error showing a deleted session")
	}
	requireContains(t, err.Error(), "No wizard session")
}

func TestCLISessionCommandsOffline(t *testing.T) {
	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	configPath := filepath.Join(homeDir, ".config", "psychds", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	sess := testsupport.NewSession(t, store, "Fallback Study")
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// No wizard is listening, so the commands read the store directly.
	socket := filepath.Join(base, "missing.sock")

	out, _, err := runCLI(t, []string{"session", "list"}, socket, configPath)
	if err != nil {
		t.Fatalf("session list offline: %v", err)
	}
	requireContains(t, out, "Fallback Study")

	out, _, err = runCLI(t, []string{"session", "show", sess.ID}, socket, configPath)
	if err != nil {
		t.Fatalf("session show offline: %v", err)
	}
	requireContains(t, out, "Fallback Study")

	out, _, err = runCLI(t, []string{"status"}, socket, configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "Not running (start it with 'psychds wizard')")
	requireContains(t, out, "1 draft session")
	requireContains(t, out, "== Environment Checks ==")
}
