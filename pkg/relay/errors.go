package relay

import (
	"errors"
	"fmt"

	"github.com/sameehj/talentrelay/pkg/dialog"
)

var (
	// ErrInvalidRequest reports a missing or empty message.
	ErrInvalidRequest = errors.New("message is required")
	// ErrRunTimedOut reports a run that did not finish within the run timeout.
	ErrRunTimedOut = errors.New("run timed out")
	// ErrRunFailed reports a run that ended in a non-completed terminal status.
	ErrRunFailed = errors.New("run failed")
)

// UpstreamError wraps any failure of the dialog backend. Stage is the stage the
// exchange was moving into when the call failed.
type UpstreamError struct {
	Stage     dialog.Stage
	SessionID string
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("upstream %s (session %s): %v", e.Stage, e.SessionID, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
