package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/persona.txt
	personaRaw string

	//go:embed template/answer_check.txt
	answerCheckRaw string

	//go:embed template/completeness.txt
	completenessRaw string

	//go:embed template/identity_extract.txt
	identityExtractRaw string

	//go:embed template/analysis.txt
	analysisRaw string

	//go:embed template/treatment_pick.txt
	treatmentPickRaw string
)

// Set holds the loaded Spanish prompt templates. The *_check/extract/analysis
// templates are fmt format strings.
type Set struct {
	Persona         string
	AnswerCheck     string
	Completeness    string
	IdentityExtract string
	Analysis        string
	TreatmentPick   string
}

// Load returns the Set with trimmed prompt strings. The embed is
// compile-time, so this is safe to call concurrently.
func Load() Set {
	return Set{
		Persona:         strings.TrimSpace(personaRaw),
		AnswerCheck:     strings.TrimSpace(answerCheckRaw),
		Completeness:    strings.TrimSpace(completenessRaw),
		IdentityExtract: strings.TrimSpace(identityExtractRaw),
		Analysis:        strings.TrimSpace(analysisRaw),
		TreatmentPick:   strings.TrimSpace(treatmentPickRaw),
	}
}
