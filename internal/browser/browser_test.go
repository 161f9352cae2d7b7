package browser_test

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/browser"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
)

func TestCommandPrefersConfiguredBrowser(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Browser = "firefox"

	l := browser.New(cfg, logging.NewNop())
	if got := l.Command(); got != "firefox" {
		t.Fatalf("expected configured browser, got %q", got)
	}
}

func TestCommandFallsBackToPlatformOpener(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Browser = ""

	want := "xdg-open"
	if runtime.GOOS == "darwin" {
		want = "open"
	}
	if got := browser.New(cfg, logging.NewNop()).Command(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEnabledFollowsConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	l := browser.New(cfg, logging.NewNop())
	if l.Enabled() {
		t.Fatal("test config disables browser launch")
	}
	cfg.Server.OpenBrowser = true
	if !l.Enabled() {
		t.Fatal("expected launch to be enabled")
	}
}

func TestOpenRunsStubbedCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("fakebrowser"))
	cfg.Server.Browser = "fakebrowser"

	l := browser.New(cfg, logging.NewNop())
	if err := l.Open(context.Background(), "http://127.0.0.1:0/"); err != nil {
		t.Fatalf("Open: %v", err)
	}
}

func TestOpenReportsMissingCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Browser = "definitely-not-a-browser"

	err := browser.New(cfg, logging.NewNop()).Open(context.Background(), "http://127.0.0.1:0/")
	if err == nil {
		t.Fatal("expected an error for a missing command")
	}
	if !strings.Contains(err.Error(), "open http://127.0.0.1:0/ manually") {
		t.Fatalf("expected manual-open guidance, got %v", err)
	}
}
