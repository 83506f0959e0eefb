package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sameehj/talentrelay/pkg/dialog"
)

// Backend is an in-memory dialog backend. It answers every run with Reply,
// which makes it usable both offline and as a scripted test double.
type Backend struct {
	// Reply is appended as the assistant entry of each completed run. An
	// empty Reply leaves the transcript without an assistant entry.
	Reply string
	// Fail injects an error on the upstream call that leads into the stage.
	Fail map[dialog.Stage]error
	// Outcome overrides the run status; zero means completed.
	Outcome dialog.RunStatus
	// Gate, when set, holds every run open until it is closed or ctx ends.
	Gate chan struct{}

	mu       sync.Mutex
	threads  map[string]dialog.Transcript
	sessions int
	posted   []string
	active   int
	peak     int
}

// New constructs a mock backend answering with reply.
func New(reply string) *Backend {
	return &Backend{Reply: reply}
}

func (b *Backend) CreateSession(ctx context.Context) (dialog.Session, error) {
	if err := b.injected(dialog.StageCreated); err != nil {
		return dialog.Session{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.threads == nil {
		b.threads = make(map[string]dialog.Transcript)
	}
	id := "thread_" + uuid.NewString()
	b.threads[id] = nil
	b.sessions++
	return dialog.Session{ID: id, CreatedAt: time.Now()}, nil
}

func (b *Backend) PostMessage(ctx context.Context, session dialog.Session, text string) error {
	if err := b.injected(dialog.StageMessageSent); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.threads[session.ID]
	if !ok {
		return fmt.Errorf("unknown thread: %s", session.ID)
	}
	entry := dialog.TranscriptEntry{
		ID:      "msg_" + uuid.NewString(),
		Role:    dialog.RoleUser,
		Content: []dialog.ContentBlock{{Type: "text", Text: text}},
	}
	b.threads[session.ID] = append(dialog.Transcript{entry}, t...)
	b.posted = append(b.posted, text)
	return nil
}

func (b *Backend) Run(ctx context.Context, session dialog.Session) (dialog.RunOutcome, error) {
	if err := b.injected(dialog.StageProcessing); err != nil {
		return dialog.RunOutcome{}, err
	}
	runID := "run_" + uuid.NewString()

	b.enter()
	defer b.leave()

	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return dialog.RunOutcome{RunID: runID, Status: dialog.RunTimedOut}, nil
			}
			return dialog.RunOutcome{}, ctx.Err()
		}
	}

	status := b.Outcome
	if status == "" {
		status = dialog.RunCompleted
	}
	if status != dialog.RunCompleted {
		return dialog.RunOutcome{RunID: runID, Status: status, Reason: "mock run " + string(status)}, nil
	}

	if b.Reply != "" {
		b.mu.Lock()
		entry := dialog.TranscriptEntry{
			ID:      "msg_" + uuid.NewString(),
			Role:    dialog.RoleAssistant,
			Content: []dialog.ContentBlock{{Type: "text", Text: b.Reply}},
		}
		b.threads[session.ID] = append(dialog.Transcript{entry}, b.threads[session.ID]...)
		b.mu.Unlock()
	}
	return dialog.RunOutcome{RunID: runID, Status: dialog.RunCompleted}, nil
}

func (b *Backend) Transcript(ctx context.Context, session dialog.Session) (dialog.Transcript, error) {
	if err := b.injected(dialog.StageTranscriptFetched); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.threads[session.ID]
	if !ok {
		return nil, fmt.Errorf("unknown thread: %s", session.ID)
	}
	return append(dialog.Transcript(nil), t...), nil
}

// Sessions reports how many sessions were created.
func (b *Backend) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions
}

// Posted returns every message text received, in arrival order.
func (b *Backend) Posted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.posted...)
}

// ActiveRuns reports runs currently in progress.
func (b *Backend) ActiveRuns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// PeakRuns reports the highest number of simultaneous runs observed.
func (b *Backend) PeakRuns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

func (b *Backend) enter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active++
	if b.active > b.peak {
		b.peak = b.active
	}
}

func (b *Backend) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active--
}

func (b *Backend) injected(stage dialog.Stage) error {
	if b.Fail == nil {
		return nil
	}
	return b.Fail[stage]
}
