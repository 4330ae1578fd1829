// Package anamnesis manages the fixed intake questionnaire: per-answer
// validation, progression, and the holistic completeness check that ends
// the stage early.
package anamnesis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
)

const (
	confusedPreamble = "Entiendo, quizás no quedó claro 😊. Lo intento de otra forma:\n\n"
	transitionReply  = "Gracias por responder. Con esta información podremos orientarte mejor. ¿Te gustaría registrarte para recibir una sesión gratuita?"
)

type Engine struct {
	model contractx.Engine
}

func NewEngine(model contractx.Engine) *Engine {
	return &Engine{model: model}
}

// ConfusedReply renders the rephrase reply for the given question.
func ConfusedReply(question string) string {
	return confusedPreamble + question
}

// TransitionReply is the fixed reply that closes the questionnaire and asks
// for registration consent.
func TransitionReply() string {
	return transitionReply
}

// Step processes one anamnesis turn. It mutates the session (answers,
// cursor, testimony, stage) and returns the reply for this turn.
func (e *Engine) Step(ctx context.Context, s *statex.Session, text string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: nil session", contractx.ErrValidation)
	}

	if s.NextQuestion < len(Questions) {
		question := Questions[s.NextQuestion]

		verdict, err := e.model.ClassifyAnswer(ctx, question, text)
		if err != nil {
			// a flaky classifier must not stall the intake; accept the answer
			log.Warn().Err(err).Str("user_id", s.UserID).Msg("answer classification failed, accepting answer")
			verdict = contractx.VerdictClear
		}
		if verdict == contractx.VerdictConfused {
			return ConfusedReply(question), nil
		}

		if err := s.RecordAnswer(question, text); err != nil {
			return "", err
		}
	}

	summary := s.AnswerSummary()
	enough, err := e.model.JudgeCompleteness(ctx, summary)
	if err != nil {
		log.Warn().Err(err).Str("user_id", s.UserID).Msg("completeness check failed, continuing questionnaire")
		enough = false
	}

	if enough || s.NextQuestion >= len(Questions) {
		s.AppendTestimony(summary)
		s.Stage = statex.StageAwaitingConsent
		return transitionReply, nil
	}

	return Questions[s.NextQuestion], nil
}
