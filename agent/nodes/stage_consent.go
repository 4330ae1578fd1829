package intakenode

import (
	"strings"

	contractx "github.com/hampiwasi/intake/agent/contract"
	languagex "github.com/hampiwasi/intake/agent/language"
	statex "github.com/hampiwasi/intake/agent/state"
)

const (
	consentEmailReply = "Gracias por proporcionar tu correo. Ahora por favor dime tu nombre, apellido, DNI y celular."
	consentFullReply  = "Perfecto. Por favor dime tu nombre, apellido, DNI, celular y correo electrónico."
	consentNeutral    = "Entiendo. Estoy aquí si necesitas hablar más."
)

// handleConsent waits for an affirmation before moving on to identity
// collection. An affirmative message containing "@" is treated as already
// supplying the email address.
func handleConsent(s *statex.Session, text string, affirmations *languagex.Matcher) string {
	if !affirmations.Matches(text) {
		return consentNeutral
	}

	s.Stage = statex.StageAwaitingIdentity
	if strings.Contains(text, "@") {
		s.Identity.Merge(contractx.Identity{Email: strings.TrimSpace(text)})
		return consentEmailReply
	}
	return consentFullReply
}
