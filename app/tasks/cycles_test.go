package tasks

import (
	"testing"
)

func TestCycleGuard_DropsOverlappingTrigger(t *testing.T) {
	guard := &cycleGuard{}

	if !guard.tryStart() {
		t.Fatal("Expected first start to succeed")
	}

	// A trigger arriving mid-run is dropped, not queued
	if guard.tryStart() {
		t.Error("Expected overlapping start to be rejected")
	}

	guard.finish()

	if !guard.tryStart() {
		t.Error("Expected start to succeed after the previous run finished")
	}
	guard.finish()

	status := guard.status()
	if status.RunCount != 2 {
		t.Errorf("Expected 2 runs, got %d", status.RunCount)
	}
	if status.DroppedCount != 1 {
		t.Errorf("Expected 1 dropped trigger, got %d", status.DroppedCount)
	}
	if status.Running {
		t.Error("Expected guard to report not running")
	}
}

func TestCycleGuard_StatusWhileRunning(t *testing.T) {
	guard := &cycleGuard{}

	guard.tryStart()

	status := guard.status()
	if !status.Running {
		t.Error("Expected guard to report running")
	}
	if status.LastStartedAt == nil {
		t.Error("Expected a start timestamp while running")
	}
	if status.LastDuration != "" {
		t.Error("Expected no duration reported mid-run")
	}

	guard.finish()
}
