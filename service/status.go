package service

import (
	"sync"

	"github.com/google/uuid"

	"subtitle-worker/constant"
	"subtitle-worker/dto"
)

// progressEvent is one milestone update emitted by an orchestrator
// job. Status transitions and progress bumps travel the same channel.
type progressEvent struct {
	fileId   uuid.UUID
	status   constant.MediaStatus
	progress int
	message  string
	urls     *dto.StatusSnapshot
}

// StatusTracker keeps the in-memory per-file state machine that the
// poll endpoint reads. Orchestrator jobs publish milestones onto a
// channel; a single drain goroutine applies them, so records are never
// written concurrently. Terminal states (ready, error) are immutable.
type StatusTracker struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*dto.StatusSnapshot
	events  chan progressEvent
	done    chan struct{}
}

func NewStatusTracker() *StatusTracker {
	t := &StatusTracker{
		records: make(map[uuid.UUID]*dto.StatusSnapshot),
		events:  make(chan progressEvent, 64),
		done:    make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *StatusTracker) drain() {
	for {
		select {
		case ev := <-t.events:
			t.apply(ev)
		case <-t.done:
			for {
				select {
				case ev := <-t.events:
					t.apply(ev)
				default:
					return
				}
			}
		}
	}
}

func (t *StatusTracker) apply(ev progressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[ev.fileId]
	if !ok {
		record = &dto.StatusSnapshot{FileId: ev.fileId, Status: string(constant.MediaStatusUploading)}
		t.records[ev.fileId] = record
	}
	if constant.MediaStatus(record.Status).Terminal() {
		return
	}

	if ev.status != "" {
		record.Status = string(ev.status)
	}
	// Progress checkpoints are coarse and monotonic.
	if ev.progress > record.Progress {
		record.Progress = ev.progress
	}
	if ev.status == constant.MediaStatusError {
		record.Error = ev.message
	}
	if ev.urls != nil {
		record.OriginalUrl = ev.urls.OriginalUrl
		record.PreviewUrl = ev.urls.PreviewUrl
		record.ThumbnailUrl = ev.urls.ThumbnailUrl
		record.AudioUrl = ev.urls.AudioUrl
	}
}

// Begin registers a file as processing.
func (t *StatusTracker) Begin(fileId uuid.UUID) {
	t.events <- progressEvent{fileId: fileId, status: constant.MediaStatusProcessing}
}

// Checkpoint records a milestone percentage for a processing file.
func (t *StatusTracker) Checkpoint(fileId uuid.UUID, progress int) {
	t.events <- progressEvent{fileId: fileId, progress: progress}
}

// Finish marks a file ready and publishes its derived URLs.
func (t *StatusTracker) Finish(fileId uuid.UUID, urls dto.StatusSnapshot) {
	t.events <- progressEvent{
		fileId:   fileId,
		status:   constant.MediaStatusReady,
		progress: constant.ProgressReady,
		urls:     &urls,
	}
}

// Fail transitions a file to the terminal error state. Only the
// message is retained, never a stack trace.
func (t *StatusTracker) Fail(fileId uuid.UUID, message string) {
	t.events <- progressEvent{fileId: fileId, status: constant.MediaStatusError, message: message}
}

// Snapshot returns a copy of the current record for polling. ok is
// false when the file is unknown to this process.
func (t *StatusTracker) Snapshot(fileId uuid.UUID) (dto.StatusSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.records[fileId]
	if !ok {
		return dto.StatusSnapshot{}, false
	}
	return *record, true
}

// Close stops the drain goroutine after flushing pending events.
func (t *StatusTracker) Close() {
	close(t.done)
}
