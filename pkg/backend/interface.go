package backend

import (
	"context"

	"github.com/sameehj/talentrelay/pkg/dialog"
)

// Backend is a stateful, turn-based dialog service. Each method maps to one
// upstream call, except Run which blocks until the run reaches a terminal
// status or ctx ends.
type Backend interface {
	CreateSession(ctx context.Context) (dialog.Session, error)
	PostMessage(ctx context.Context, session dialog.Session, text string) error
	Run(ctx context.Context, session dialog.Session) (dialog.RunOutcome, error)
	Transcript(ctx context.Context, session dialog.Session) (dialog.Transcript, error)
}
