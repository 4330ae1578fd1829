package state

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/hampiwasi/intake/agent/contract"
)

// Stage is the current position of a session in the intake conversation.
type Stage string

const (
	StageInitial          Stage = "initial"
	StageAnamnesis        Stage = "anamnesis"
	StageAwaitingConsent  Stage = "awaiting_consent"
	StageAwaitingIdentity Stage = "awaiting_identity"
	StageCompleted        Stage = "completed"
)

func (s Stage) Valid() bool {
	switch s {
	case StageInitial, StageAnamnesis, StageAwaitingConsent, StageAwaitingIdentity, StageCompleted:
		return true
	}
	return false
}

// Answer records one accepted anamnesis answer. Answers are kept in the
// order the questions were asked.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// Session is the per-user conversation state. It is mutated in place by the
// stage policy and persisted after every turn.
type Session struct {
	UserID       string            `json:"user_id"`
	Stage        Stage             `json:"stage"`
	History      []contractx.Turn  `json:"history,omitempty"`
	Testimony    string            `json:"testimony,omitempty"`
	Answers      []Answer          `json:"answers,omitempty"`
	NextQuestion int               `json:"next_question"`
	Identity     contractx.Identity `json:"identity"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Stage:     StageInitial,
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) AppendTurn(role contractx.Role, content string) {
	s.History = append(s.History, contractx.Turn{Role: role, Content: content})
}

func (s *Session) PrependTurn(role contractx.Role, content string) {
	s.History = append([]contractx.Turn{{Role: role, Content: content}}, s.History...)
}

// AppendTestimony accumulates free text. The testimony is never truncated
// or deduplicated.
func (s *Session) AppendTestimony(text string) {
	s.Testimony += " " + text
}

// RecordAnswer stores the answer for the question at the current cursor and
// advances it. The cursor only ever moves forward.
func (s *Session) RecordAnswer(question, text string) error {
	for _, a := range s.Answers {
		if a.Question == question {
			return fmt.Errorf("%w: question already answered: %q", contractx.ErrValidation, question)
		}
	}
	if len(s.Answers) != s.NextQuestion {
		return fmt.Errorf("%w: answer count %d does not match cursor %d", contractx.ErrValidation, len(s.Answers), s.NextQuestion)
	}
	s.Answers = append(s.Answers, Answer{Question: question, Text: text})
	s.NextQuestion++
	return nil
}

// AnswerSummary renders all accepted answers as "question: answer" pairs
// joined by spaces.
func (s *Session) AnswerSummary() string {
	parts := make([]string, 0, len(s.Answers))
	for _, a := range s.Answers {
		parts = append(parts, a.Question+": "+a.Text)
	}
	return strings.Join(parts, " ")
}

// Validate checks the session invariants. questionCount is the length of
// the fixed question list.
func (s *Session) Validate(questionCount int) error {
	if s == nil {
		return fmt.Errorf("%w: nil session", contractx.ErrValidation)
	}
	if strings.TrimSpace(s.UserID) == "" {
		return ErrInvalidUser
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", contractx.ErrValidation, s.Stage)
	}
	if s.NextQuestion < 0 || s.NextQuestion > questionCount {
		return fmt.Errorf("%w: question cursor %d out of range [0,%d]", contractx.ErrValidation, s.NextQuestion, questionCount)
	}
	if len(s.Answers) > s.NextQuestion {
		return fmt.Errorf("%w: %d answers recorded past cursor %d", contractx.ErrValidation, len(s.Answers), s.NextQuestion)
	}
	return nil
}

// Clone returns a deep copy so stored state is never aliased by callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.History = append([]contractx.Turn(nil), s.History...)
	cp.Answers = append([]Answer(nil), s.Answers...)
	return &cp
}
