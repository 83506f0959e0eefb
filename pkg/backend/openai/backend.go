package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sameehj/talentrelay/pkg/dialog"
)

const defaultPollInterval = time.Second

// Options configures a Backend.
type Options struct {
	APIKey      string
	AssistantID string
	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Backend talks to the OpenAI Assistants API. A dialog session is a thread; a
// run is a thread run against the configured assistant.
type Backend struct {
	client       openai.Client
	assistantID  string
	pollInterval time.Duration
}

func New(opts Options) (*Backend, error) {
	if opts.APIKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if opts.AssistantID == "" {
		return nil, errors.New("missing ASSISTANT_ID")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Backend{
		client:       openai.NewClient(reqOpts...),
		assistantID:  opts.AssistantID,
		pollInterval: opts.PollInterval,
	}, nil
}

func (b *Backend) CreateSession(ctx context.Context) (dialog.Session, error) {
	thread, err := b.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return dialog.Session{}, fmt.Errorf("create thread: %w", err)
	}
	return dialog.Session{ID: thread.ID, CreatedAt: time.Unix(thread.CreatedAt, 0)}, nil
}

func (b *Backend) PostMessage(ctx context.Context, session dialog.Session, text string) error {
	_, err := b.client.Beta.Threads.Messages.New(ctx, session.ID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Run starts a run and polls it until it leaves the queued/in-progress states.
// A ctx deadline is reported as a RunTimedOut outcome rather than an error.
func (b *Backend) Run(ctx context.Context, session dialog.Session) (dialog.RunOutcome, error) {
	run, err := b.client.Beta.Threads.Runs.New(ctx, session.ID, openai.BetaThreadRunNewParams{
		AssistantID: b.assistantID,
	})
	if err != nil {
		return dialog.RunOutcome{}, fmt.Errorf("create run: %w", err)
	}

	runID := run.ID
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		if outcome, done := outcomeOf(run); done {
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			return timedOut(ctx, runID)
		case <-ticker.C:
		}

		run, err = b.client.Beta.Threads.Runs.Get(ctx, session.ID, runID)
		if err != nil {
			if ctx.Err() != nil {
				return timedOut(ctx, runID)
			}
			return dialog.RunOutcome{}, fmt.Errorf("poll run: %w", err)
		}
	}
}

func (b *Backend) Transcript(ctx context.Context, session dialog.Session) (dialog.Transcript, error) {
	page, err := b.client.Beta.Threads.Messages.List(ctx, session.ID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make(dialog.Transcript, 0, len(page.Data))
	for _, msg := range page.Data {
		entry := dialog.TranscriptEntry{
			ID:   msg.ID,
			Role: dialog.Role(msg.Role),
		}
		for _, part := range msg.Content {
			block := dialog.ContentBlock{Type: part.Type}
			switch part.Type {
			case dialog.BlockText:
				block.Text = part.Text.Value
			case dialog.BlockRefusal:
				block.Text = part.Refusal
			}
			entry.Content = append(entry.Content, block)
		}
		out = append(out, entry)
	}
	return out, nil
}

func outcomeOf(run *openai.Run) (dialog.RunOutcome, bool) {
	switch run.Status {
	case openai.RunStatusCompleted:
		return dialog.RunOutcome{RunID: run.ID, Status: dialog.RunCompleted}, true
	case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
		return dialog.RunOutcome{}, false
	default:
		reason := run.LastError.Message
		if reason == "" {
			reason = "run " + string(run.Status)
		}
		return dialog.RunOutcome{RunID: run.ID, Status: dialog.RunFailed, Reason: reason}, true
	}
}

// timedOut distinguishes a deadline from an explicit cancellation; only the
// former is a run outcome.
func timedOut(ctx context.Context, runID string) (dialog.RunOutcome, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dialog.RunOutcome{RunID: runID, Status: dialog.RunTimedOut}, nil
	}
	return dialog.RunOutcome{}, ctx.Err()
}
