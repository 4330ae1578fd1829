package intakenode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/hampiwasi/intake/agent/contract"
	registrationx "github.com/hampiwasi/intake/agent/registration"
	statex "github.com/hampiwasi/intake/agent/state"
)

const identityMissingFmt = "Aún necesito los siguientes datos para registrarte: %s."

// handleIdentity merges extracted fields into the partial identity record
// and either reports what is still missing or hands off to registration.
func handleIdentity(
	ctx context.Context,
	s *statex.Session,
	text string,
	model contractx.Engine,
	registrar *registrationx.Coordinator,
) string {
	extracted, err := model.ExtractIdentity(ctx, text)
	if err != nil {
		// extraction failure means "no fields found"; already-set fields stay
		log.Warn().Err(err).Str("user_id", s.UserID).Msg("identity extraction failed")
		extracted = contractx.Identity{}
	}
	s.Identity.Merge(extracted)

	if missing := s.Identity.Missing(); len(missing) > 0 {
		return fmt.Sprintf(identityMissingFmt, strings.Join(missing, ", "))
	}

	reply, ok := registrar.Register(ctx, s)
	if ok {
		s.Stage = statex.StageCompleted
	}
	return reply
}
