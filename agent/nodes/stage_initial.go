package intakenode

import (
	"context"

	"github.com/rs/zerolog/log"

	anamnesisx "github.com/hampiwasi/intake/agent/anamnesis"
	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
)

const (
	bilingualSeedSize = 6

	// used when the generation call fails so the turn still produces a reply
	fallbackEmpathy = "Gracias por compartir cómo te sientes. Estoy aquí para escucharte."
)

// handleInitial seeds the dialogue, generates the first empathetic reply
// and opens the questionnaire. The reply is the generated text concatenated
// with the first fixed question.
func handleInitial(ctx context.Context, s *statex.Session, text string, deps Deps) (string, error) {
	if deps.Markers.Matches(text) {
		for _, pair := range deps.Corpus.Sample(bilingualSeedSize) {
			s.AppendTurn(contractx.RoleUser, pair.Spanish)
			s.AppendTurn(contractx.RoleAssistant, pair.Quechua)
		}
	}

	s.PrependTurn(contractx.RoleSystem, deps.Persona)
	s.AppendTurn(contractx.RoleUser, text)
	s.AppendTestimony(text)

	reply, err := deps.Model.Reply(ctx, s.History)
	if err != nil || reply == "" {
		log.Warn().Err(err).Str("user_id", s.UserID).Msg("empathy generation failed, using fallback")
		reply = fallbackEmpathy
	}

	s.AppendTurn(contractx.RoleAssistant, reply)
	s.Stage = statex.StageAnamnesis

	return reply + "\n\n" + anamnesisx.Questions[0], nil
}
