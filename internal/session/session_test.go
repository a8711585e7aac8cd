package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSessionLifecycle(t *testing.T) {
	dir := t.TempDir()
	sm := NewSessionManager()
	s := sm.CreateSession()
	if got, ok := sm.GetSession(s.ID); !ok || got != s {
		t.Fatal("session not registered")
	}

	doc := touch(t, dir, "doc.pdf")
	s.AddFile(doc)
	if !s.HasFile(doc) || len(s.GetFiles()) != 1 {
		t.Fatal("file not tracked")
	}

	if !s.TryStart() {
		t.Fatal("first TryStart should succeed")
	}
	if s.TryStart() {
		t.Fatal("second TryStart should fail while busy")
	}
	first := touch(t, dir, "out1.pdf")
	s.Finish(first)

	if !s.TryStart() {
		t.Fatal("TryStart after Finish should succeed")
	}
	second := touch(t, dir, "out2.pdf")
	s.Finish(second)
	if exists(first) {
		t.Error("previous output not removed")
	}
	if s.Output() != second {
		t.Errorf("Output = %s", s.Output())
	}

	s.Cleanup()
	if exists(doc) || exists(second) {
		t.Error("Cleanup left files behind")
	}
	sm.DeleteSession(s.ID)
	if _, ok := sm.GetSession(s.ID); ok {
		t.Error("session still registered")
	}
}

func TestExpire(t *testing.T) {
	dir := t.TempDir()
	sm := NewSessionManager()
	old := sm.CreateSession()
	old.CreatedAt = time.Now().Add(-time.Hour)
	oldFile := touch(t, dir, "old.pdf")
	old.AddFile(oldFile)
	fresh := sm.CreateSession()

	if n := sm.Expire(5*time.Minute, time.Now()); n != 1 {
		t.Fatalf("Expire removed %d sessions, want 1", n)
	}
	if _, ok := sm.GetSession(old.ID); ok {
		t.Error("old session survived")
	}
	if _, ok := sm.GetSession(fresh.ID); !ok {
		t.Error("fresh session removed")
	}
	if exists(oldFile) {
		t.Error("expired session files not removed")
	}

	sm.CleanupAll()
	if len(sm.Sessions) != 0 {
		t.Error("CleanupAll left sessions")
	}
}

func TestSweeper(t *testing.T) {
	sm := NewSessionManager()
	s := sm.CreateSession()
	s.CreatedAt = time.Now().Add(-time.Hour)

	sw := NewSweeper(sm, time.Minute, 5*time.Millisecond, nil)
	sw.Start()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := sm.GetSession(s.ID); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not expire the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	sw.Stop()
	sw.Stop()
}
