package gate

import (
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if data, err := s.Get(); err != nil || data != nil {
		t.Fatalf("expected empty store, got %q %v", data, err)
	}

	buf := []byte(`{"hasAccess":true}`)
	_ = s.Set(buf)
	buf[0] = 'x'

	data, _ := s.Get()
	if string(data) != `{"hasAccess":true}` {
		t.Fatalf("store kept caller's buffer: %q", data)
	}

	_ = s.Clear()
	if data, _ := s.Get(); data != nil {
		t.Fatalf("expected cleared store, got %q", data)
	}
}

func TestBoltStore_RoundTripAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.db")

	s, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if data, err := s.Get(); err != nil || data != nil {
		t.Fatalf("expected empty store, got %q %v", data, err)
	}
	if err := s.Set([]byte(`{"code":"ABC123"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	data, err := s.Get()
	if err != nil || string(data) != `{"code":"ABC123"}` {
		t.Fatalf("expected persisted record, got %q %v", data, err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if data, _ := s.Get(); data != nil {
		t.Fatalf("expected cleared record, got %q", data)
	}
}

func TestBoltStore_WithGate(t *testing.T) {
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "access.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	g, _ := newTestGate(t, s)
	if err := g.GrantAccess("ABC123"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !g.CheckAccess() {
		t.Fatal("expected access from bolt-backed gate")
	}
}
