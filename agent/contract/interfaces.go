package contract

import "context"

// Engine is the generation/classification collaborator. Implementations are
// expected to pick the sampling temperature appropriate to each call shape.
type Engine interface {
	// Reply generates one open-ended empathetic completion for the given
	// role-tagged turns.
	Reply(ctx context.Context, turns []Turn) (string, error)

	// ClassifyAnswer labels a patient's answer to an intake question as
	// clear or confused. Deterministic generation.
	ClassifyAnswer(ctx context.Context, question, answer string) (AnswerVerdict, error)

	// JudgeCompleteness decides whether the collected answers already cover
	// the required anamnesis topic areas. Deterministic generation.
	JudgeCompleteness(ctx context.Context, summary string) (bool, error)

	// ExtractIdentity pulls identity fields out of free text. Malformed
	// model output yields a zero Identity, not an error.
	ExtractIdentity(ctx context.Context, text string) (Identity, error)

	// AnalyzeTestimony derives the clinical analysis from the accumulated
	// testimony. Malformed model output yields a zero Analysis.
	AnalyzeTestimony(ctx context.Context, testimony string) (Analysis, error)

	// SelectTreatment returns the identifier of the best-matching treatment
	// as free text. The result is not validated against the list.
	SelectTreatment(ctx context.Context, testimony string, treatments []Treatment) (string, error)
}

// Clinic is the bearer-authenticated clinical backend.
type Clinic interface {
	CreatePatient(ctx context.Context, id Identity) (Patient, error)
	ListProfessionals(ctx context.Context) ([]Professional, error)
	CreateAppointment(ctx context.Context, appt Appointment) error
	ListTreatments(ctx context.Context) ([]Treatment, error)
	CreateClinicalRecord(ctx context.Context, rec ClinicalRecord) error
}
