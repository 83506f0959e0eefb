package gateway

import "time"

// Exchange tracks one in-flight /ask-talent request.
type Exchange struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
}
