package token

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := s.Get(Access); got != "" {
		t.Errorf("expected empty access token, got %q", got)
	}
	if got := s.Get(Refresh); got != "" {
		t.Errorf("expected empty refresh token, got %q", got)
	}
}

func TestSetPair_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetPair("acc-1", "ref-1"); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.Get(Access); got != "acc-1" {
		t.Errorf("access = %q; want acc-1", got)
	}
	if got := reopened.Get(Refresh); got != "ref-1" {
		t.Errorf("refresh = %q; want ref-1", got)
	}
}

func TestSet_SingleKind(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Set(Access, "only-access"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := s.Get(Access); got != "only-access" {
		t.Errorf("access = %q; want only-access", got)
	}
	if got := s.Get(Refresh); got != "" {
		t.Errorf("refresh = %q; want empty", got)
	}
}

func TestClear_RemovesBothAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetPair("a", "r"); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Get(Access) != "" || reopened.Get(Refresh) != "" {
		t.Error("tokens survived Clear")
	}
}

func TestStoreFile_IsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetPair("a", "r"); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o; want 600", perm)
	}
}
