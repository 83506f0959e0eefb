package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sameehj/talentrelay/pkg/backend"
	"github.com/sameehj/talentrelay/pkg/dialog"
)

const DefaultRunTimeout = 2 * time.Minute

type Request struct {
	Message string `json:"message"`
}

type Response struct {
	Response string `json:"response"`
}

type Options struct {
	// RunTimeout bounds the wait for a run; zero selects DefaultRunTimeout and
	// a negative value disables the bound.
	RunTimeout time.Duration
	// MaxInFlight bounds concurrent exchanges; zero means unbounded.
	MaxInFlight int
	Logger      *slog.Logger
}

// Relay forwards one message per call to a fresh backend session and returns
// the assistant's reply.
type Relay struct {
	backend    backend.Backend
	runTimeout time.Duration
	slots      *semaphore.Weighted
	logger     *slog.Logger
}

func New(b backend.Backend, opts Options) *Relay {
	r := &Relay{
		backend:    b,
		runTimeout: opts.RunTimeout,
		logger:     opts.Logger,
	}
	if r.runTimeout == 0 {
		r.runTimeout = DefaultRunTimeout
	}
	if opts.MaxInFlight > 0 {
		r.slots = semaphore.NewWeighted(int64(opts.MaxInFlight))
	}
	return r
}

// Handle runs one exchange. Callers beyond MaxInFlight wait for a slot until
// ctx ends. A transcript without an assistant reply yields
// dialog.FallbackReply, not an error.
func (r *Relay) Handle(ctx context.Context, req Request) (Response, error) {
	if req.Message == "" {
		return Response{}, ErrInvalidRequest
	}

	if r.slots != nil {
		if err := r.slots.Acquire(ctx, 1); err != nil {
			return Response{}, fmt.Errorf("wait for relay slot: %w", err)
		}
		defer r.slots.Release(1)
	}

	session, err := r.backend.CreateSession(ctx)
	if err != nil {
		return Response{}, &UpstreamError{Stage: dialog.StageCreated, Err: err}
	}
	r.logDebug("dialog_stage", "stage", dialog.StageCreated, "session", session.ID)

	if err := r.backend.PostMessage(ctx, session, req.Message); err != nil {
		return Response{}, r.fail(dialog.StageMessageSent, session, err)
	}
	r.logDebug("dialog_stage", "stage", dialog.StageMessageSent, "session", session.ID)

	outcome, err := r.run(ctx, session)
	if err != nil {
		return Response{}, r.fail(dialog.StageProcessing, session, err)
	}
	r.logDebug("dialog_stage", "stage", dialog.StageProcessing, "session", session.ID, "run", outcome.RunID)

	transcript, err := r.backend.Transcript(ctx, session)
	if err != nil {
		return Response{}, r.fail(dialog.StageTranscriptFetched, session, err)
	}
	r.logDebug("dialog_stage", "stage", dialog.StageTranscriptFetched, "session", session.ID, "entries", len(transcript))

	reply, ok := dialog.ExtractReply(transcript)
	if !ok {
		r.logInfo("assistant_reply_missing", "session", session.ID, "run", outcome.RunID)
	}
	r.logDebug("dialog_stage", "stage", dialog.StageDone, "session", session.ID)
	return Response{Response: reply}, nil
}

// run waits for the backend run under the run timeout and turns any
// non-completed outcome into an error.
func (r *Relay) run(ctx context.Context, session dialog.Session) (dialog.RunOutcome, error) {
	runCtx := ctx
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	outcome, err := r.backend.Run(runCtx, session)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return outcome, fmt.Errorf("%w after %s", ErrRunTimedOut, r.runTimeout)
		}
		return outcome, err
	}

	if outcome.Completed() {
		return outcome, nil
	}
	if outcome.Status == dialog.RunTimedOut {
		return outcome, fmt.Errorf("%w after %s", ErrRunTimedOut, r.runTimeout)
	}
	return outcome, fmt.Errorf("%w: %s", ErrRunFailed, outcome.Reason)
}

func (r *Relay) fail(stage dialog.Stage, session dialog.Session, err error) error {
	r.logDebug("dialog_stage", "stage", dialog.StageFailed, "session", session.ID, "failed_at", stage)
	return &UpstreamError{Stage: stage, SessionID: session.ID, Err: err}
}

func (r *Relay) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Relay) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
