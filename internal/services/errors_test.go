package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "validator", "compile", "schema unreadable", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"validator", "compile", "schema unreadable"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	t.Parallel()

	err := services.Wrap(nil, "osf", "upload", "put failed", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	t.Parallel()

	err := services.Wrap(services.ErrNotFound, "wizard", "get", "session missing", nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
	if errors.Unwrap(errors.Unwrap(err)) != nil {
		t.Fatalf("expected no cause chain beyond the marker, got %v", err)
	}
}

func TestMessageStripsPrefixes(t *testing.T) {
	t.Parallel()

	err := services.Wrap(services.ErrConflict, "wizard", "advance", "Step 2 is incomplete: provide a dataset name and description", nil)
	want := "Step 2 is incomplete: provide a dataset name and description"
	if got := services.Message(err); got != want {
		t.Fatalf("Message = %q, want %q", got, want)
	}
}

func TestMessageKeepsCauseText(t *testing.T) {
	t.Parallel()

	err := services.Wrap(services.ErrValidation, "wizard", "update selection", "File a.csv was not found in the chosen directory", errors.New("no such file"))
	got := services.Message(err)
	if !strings.HasPrefix(got, "File a.csv was not found") {
		t.Fatalf("Message = %q", got)
	}
	if !strings.Contains(got, "no such file") {
		t.Fatalf("expected the cause to remain, got %q", got)
	}
}

func TestMessagePassesPlainErrorsThrough(t *testing.T) {
	t.Parallel()

	if got := services.Message(errors.New("anything")); got != "anything" {
		t.Fatalf("Message = %q", got)
	}
	if got := services.Message(nil); got != "" {
		t.Fatalf("Message(nil) = %q", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", services.Wrap(services.ErrValidation, "wizard", "advance", "gate", nil), "validation"},
		{"configuration", services.Wrap(services.ErrConfiguration, "osf", "verify", "no token", nil), "configuration"},
		{"not found", services.Wrap(services.ErrNotFound, "wizard", "get", "missing", nil), "not_found"},
		{"conflict", services.Wrap(services.ErrConflict, "wizard", "advance", "step locked", nil), "conflict"},
		{"external tool", services.Wrap(services.ErrExternalTool, "codebook", "pandoc", "exit 1", nil), "external_tool"},
		{"unavailable", services.Wrap(services.ErrUnavailable, "codebook", "pdf", "pandoc missing", nil), "unavailable"},
		{"plain", errors.New("anything"), "transient"},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}
