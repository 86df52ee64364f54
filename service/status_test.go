package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"subtitle-worker/constant"
	"subtitle-worker/dto"
)

func waitForSnapshot(t *testing.T, tracker *StatusTracker, fileId uuid.UUID, check func(dto.StatusSnapshot) bool) dto.StatusSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snapshot, ok := tracker.Snapshot(fileId)
		if ok && check(snapshot) {
			return snapshot
		}
		time.Sleep(5 * time.Millisecond)
	}
	snapshot, _ := tracker.Snapshot(fileId)
	t.Fatalf("condition never met, last snapshot: %+v", snapshot)
	return dto.StatusSnapshot{}
}

func TestStatusTrackerLifecycle(t *testing.T) {
	tracker := NewStatusTracker()
	defer tracker.Close()
	fileId := uuid.New()

	tracker.Begin(fileId)
	snapshot := waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Status == string(constant.MediaStatusProcessing)
	})
	if snapshot.Progress != 0 {
		t.Fatalf("fresh job progress = %d, want 0", snapshot.Progress)
	}

	tracker.Checkpoint(fileId, constant.ProgressDownloaded)
	tracker.Checkpoint(fileId, constant.ProgressProbed)
	waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Progress == constant.ProgressProbed
	})

	tracker.Finish(fileId, dto.StatusSnapshot{PreviewUrl: "http://x/preview.mp4"})
	snapshot = waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Status == string(constant.MediaStatusReady)
	})
	if snapshot.Progress != constant.ProgressReady {
		t.Fatalf("ready progress = %d, want %d", snapshot.Progress, constant.ProgressReady)
	}
	if snapshot.PreviewUrl != "http://x/preview.mp4" {
		t.Fatalf("derived urls not published: %+v", snapshot)
	}
}

func TestStatusTrackerProgressMonotonic(t *testing.T) {
	tracker := NewStatusTracker()
	defer tracker.Close()
	fileId := uuid.New()

	tracker.Begin(fileId)
	tracker.Checkpoint(fileId, constant.ProgressAudioDone)
	waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Progress == constant.ProgressAudioDone
	})

	// A stale earlier milestone must not move progress backwards.
	tracker.Checkpoint(fileId, constant.ProgressDownloaded)
	tracker.Checkpoint(fileId, constant.ProgressUploaded)
	snapshot := waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Progress == constant.ProgressUploaded
	})
	if snapshot.Progress < constant.ProgressAudioDone {
		t.Fatalf("progress moved backwards: %d", snapshot.Progress)
	}
}

func TestStatusTrackerErrorIsTerminal(t *testing.T) {
	tracker := NewStatusTracker()
	defer tracker.Close()
	fileId := uuid.New()

	tracker.Begin(fileId)
	tracker.Fail(fileId, "probe failed: no duration")
	snapshot := waitForSnapshot(t, tracker, fileId, func(s dto.StatusSnapshot) bool {
		return s.Status == string(constant.MediaStatusError)
	})
	if snapshot.Error != "probe failed: no duration" {
		t.Fatalf("error message not retained: %+v", snapshot)
	}

	// Terminal state is immutable.
	tracker.Checkpoint(fileId, constant.ProgressUploaded)
	tracker.Finish(fileId, dto.StatusSnapshot{})
	time.Sleep(50 * time.Millisecond)
	snapshot, _ = tracker.Snapshot(fileId)
	if snapshot.Status != string(constant.MediaStatusError) {
		t.Fatalf("terminal error state overwritten: %+v", snapshot)
	}
	if snapshot.Progress != 0 {
		t.Fatalf("progress mutated after terminal state: %+v", snapshot)
	}
}

func TestStatusTrackerUnknownFile(t *testing.T) {
	tracker := NewStatusTracker()
	defer tracker.Close()
	if _, ok := tracker.Snapshot(uuid.New()); ok {
		t.Fatal("expected unknown file to report not found")
	}
}
