package scheduler

import "testing"

func TestAddJobReplacesByName(t *testing.T) {
	s := NewScheduler()

	if err := s.AddJob("sweep", "@every 1m", func() {}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob("sweep", "@every 5m", func() {}); err != nil {
		t.Fatalf("AddJob replace: %v", err)
	}
	if got := s.JobCount(); got != 1 {
		t.Fatalf("JobCount = %d, want 1", got)
	}

	s.RemoveJob("sweep")
	if got := s.JobCount(); got != 0 {
		t.Fatalf("JobCount after remove = %d, want 0", got)
	}
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewScheduler()
	if err := s.AddJob("broken", "not a cron spec", func() {}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if got := s.JobCount(); got != 0 {
		t.Fatalf("JobCount = %d, want 0", got)
	}
}
