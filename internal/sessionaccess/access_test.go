package sessionaccess_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psych-ds/psychds-r-sub001/internal/ipc"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
	"github.com/psych-ds/psychds-r-sub001/internal/sessionaccess"
	"github.com/psych-ds/psychds-r-sub001/internal/testsupport"
)

func TestStoreAccessRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seeded := testsupport.NewSession(t, store, "Memory Study")

	access := sessionaccess.NewStoreAccess(store)
	ctx := context.Background()

	sessions, err := access.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != seeded.ID {
		t.Fatalf("unexpected session list: %+v", sessions)
	}

	got, err := access.Get(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Memory Study" {
		t.Fatalf("unexpected session name %q", got.Name)
	}

	if _, err := access.Get(ctx, "ghost"); err == nil || !strings.Contains(err.Error(), "No wizard session ghost") {
		t.Fatalf("expected not-found error, got %v", err)
	}

	if err := access.Delete(ctx, seeded.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := access.Delete(ctx, seeded.ID); err == nil {
		t.Fatalf("expected error deleting twice")
	}
}

func TestStoreAccessRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	access := sessionaccess.NewStoreAccess(store)

	if _, err := access.Get(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank id")
	}
	if err := access.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestOpenWithFallbackUsesStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewSession(t, store, "Fallback Study")
	if err := store.Close(); err != nil {
		t.Fatalf("close seeded store: %v", err)
	}

	missingSocket := filepath.Join(t.TempDir(), "wizard.sock")
	handle, err := sessionaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return ipc.Dial(missingSocket) },
		func() (*session.Store, error) { return session.Open(cfg) },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer handle.Close()

	if handle.Live {
		t.Fatal("expected store-backed handle when the socket is missing")
	}
	sessions, err := handle.Access.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "Fallback Study" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestOpenWithFallbackRequiresOpener(t *testing.T) {
	if _, err := sessionaccess.OpenWithFallback(nil, nil); err == nil {
		t.Fatal("expected error without a store opener")
	}
}
