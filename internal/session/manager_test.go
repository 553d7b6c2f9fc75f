package session

import (
	"testing"
	"time"
)

func testManager(t *testing.T, timeout time.Duration) *Manager {
	t.Helper()

	mgr := NewManager(testLogger(), timeout, testDeps(&fakeTranscriber{}, &fakeEvaluator{}))
	t.Cleanup(mgr.Stop)
	return mgr
}

func TestManagerCreateAndGet(t *testing.T) {
	mgr := testManager(t, time.Minute)

	s, err := mgr.CreateSession(testQuestions())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if s.ID == "" {
		t.Error("Expected a generated session id")
	}

	got, exists := mgr.GetSession(s.ID)
	if !exists {
		t.Fatal("Session not found after creation")
	}
	if got != s {
		t.Error("GetSession returned a different session")
	}

	if _, exists := mgr.GetSession("no-such-id"); exists {
		t.Error("Expected miss for unknown id")
	}

	if count := mgr.GetActiveSessionCount(); count != 1 {
		t.Errorf("Expected 1 active session, got %d", count)
	}
}

func TestManagerCreateRejectsEmptyQuestions(t *testing.T) {
	mgr := testManager(t, time.Minute)

	if _, err := mgr.CreateSession(nil); err == nil {
		t.Error("Expected error for empty question list")
	}
	if count := mgr.GetActiveSessionCount(); count != 0 {
		t.Errorf("Expected 0 sessions, got %d", count)
	}
}

func TestManagerRemoveSession(t *testing.T) {
	mgr := testManager(t, time.Minute)

	s, err := mgr.CreateSession(testQuestions())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if !mgr.RemoveSession(s.ID) {
		t.Error("Expected removal to succeed")
	}
	if mgr.RemoveSession(s.ID) {
		t.Error("Second removal should report false")
	}
	if _, exists := mgr.GetSession(s.ID); exists {
		t.Error("Session still present after removal")
	}
}

func TestManagerCleanupExpiredSessions(t *testing.T) {
	mgr := testManager(t, 10*time.Millisecond)

	s, err := mgr.CreateSession(testQuestions())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	mgr.cleanupExpiredSessions()

	if _, exists := mgr.GetSession(s.ID); exists {
		t.Error("Expired session should have been removed")
	}
}

func TestManagerCleanupKeepsActiveSessions(t *testing.T) {
	mgr := testManager(t, time.Minute)

	s, err := mgr.CreateSession(testQuestions())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	mgr.cleanupExpiredSessions()

	if _, exists := mgr.GetSession(s.ID); !exists {
		t.Error("Active session must survive cleanup")
	}
}

func TestManagerGetAllSessions(t *testing.T) {
	mgr := testManager(t, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateSession(testQuestions()); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	infos := mgr.GetAllSessions()
	if len(infos) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(infos))
	}
	for _, info := range infos {
		if len(info.Questions) != 3 {
			t.Errorf("Snapshot %s has %d questions", info.ID, len(info.Questions))
		}
	}

	stats := mgr.GetStats()
	if stats.ActiveSessions != 3 || stats.TotalQuestions != 9 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
