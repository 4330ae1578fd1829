// Package intakenode contains the per-turn pipeline nodes: request
// validation, session load, stage dispatch, persistence and reply
// finalization.
package intakenode

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	statex "github.com/hampiwasi/intake/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user id is empty")
	ErrEmptyReply     = errors.New("stage handler produced an empty reply")
)

type GraphInput struct {
	UserID string
	Text   string
}

type GraphOutput struct {
	Reply string
}

type GraphState struct {
	UserID string
	Text   string
	Now    time.Time
	TurnID string

	Session *statex.Session
	Reply   string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		UserID: userID,
		Text:   text,
		Now:    nowFn().UTC(),
		TurnID: uuid.NewString(),
	}, nil
}
