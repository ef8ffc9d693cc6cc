package chat

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrGeneratorUnavailable = errors.New("ai service unavailable")
	ErrSessionIDExhausted   = errors.New("could not allocate a unique session id")
)

// GenerationError reports that the message generator failed to produce a reply.
// The user turn that triggered the call stays in the transcript.
type GenerationError struct {
	SessionID string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
