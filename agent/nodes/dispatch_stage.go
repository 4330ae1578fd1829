package intakenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	anamnesisx "github.com/hampiwasi/intake/agent/anamnesis"
	contractx "github.com/hampiwasi/intake/agent/contract"
	corpusx "github.com/hampiwasi/intake/agent/corpus"
	languagex "github.com/hampiwasi/intake/agent/language"
	registrationx "github.com/hampiwasi/intake/agent/registration"
	statex "github.com/hampiwasi/intake/agent/state"
)

const completedReply = "Tu cita ya está registrada. ¿Hay algo más en lo que pueda ayudarte?"

// Deps bundles the collaborators the stage handlers need.
type Deps struct {
	Model        contractx.Engine
	Corpus       *corpusx.Corpus
	Markers      *languagex.Matcher
	Affirmations *languagex.Matcher
	Anamnesis    *anamnesisx.Engine
	Registrar    *registrationx.Coordinator
	Persona      string
}

// DispatchStage routes the turn to the handler for the session's current
// stage. The switch is exhaustive over the Stage enum.
func DispatchStage(ctx context.Context, in *GraphState, deps Deps) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	s := in.Session
	log.Debug().
		Str("turn_id", in.TurnID).
		Str("user_id", s.UserID).
		Str("stage", string(s.Stage)).
		Msg("dispatching turn")

	var (
		reply string
		err   error
	)
	switch s.Stage {
	case statex.StageInitial:
		reply, err = handleInitial(ctx, s, in.Text, deps)
	case statex.StageAnamnesis:
		reply, err = deps.Anamnesis.Step(ctx, s, in.Text)
	case statex.StageAwaitingConsent:
		reply = handleConsent(s, in.Text, deps.Affirmations)
	case statex.StageAwaitingIdentity:
		reply = handleIdentity(ctx, s, in.Text, deps.Model, deps.Registrar)
	case statex.StageCompleted:
		reply = completedReply
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", contractx.ErrValidation, s.Stage)
	}
	if err != nil {
		return nil, err
	}

	in.Reply = reply
	return in, nil
}
