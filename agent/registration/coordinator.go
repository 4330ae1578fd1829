// Package registration drives the backend hand-off once the identity record
// is complete: persist the patient, derive a specialty from the testimony,
// book the first appointment and write the clinical record.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
	clinicx "github.com/hampiwasi/intake/pkg/clinic"
)

const (
	appointmentMotive   = "Primera sesión gratuita ofrecida por el chatbot"
	appointmentDateTime = "2025-07-01T10:00:00Z"
	appointmentStatus   = "PENDIENTE"

	replyBackendRejected = "Ocurrió un problema al registrar tus datos. Intenta nuevamente."
	replyNoPatientID     = "El servidor no devolvió un ID de paciente. Por favor intenta más tarde."
	replyNoProfessional  = "No encontramos un profesional disponible. Te contactaremos pronto."
	replyUnexpected      = "Ocurrió un error inesperado al registrar tus datos. Por favor, intenta nuevamente."
	replySuccessFmt      = "Tu sesión ha sido agendada exitosamente y tu historia clínica registrada. ¡Gracias por confiar en nosotros, %s!"
)

type Coordinator struct {
	model  contractx.Engine
	clinic contractx.Clinic
	now    func() time.Time
}

func New(model contractx.Engine, clinic contractx.Clinic) *Coordinator {
	return &Coordinator{model: model, clinic: clinic, now: time.Now}
}

// WithClock overrides the record timestamp source.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	if now != nil {
		c.now = now
	}
	return c
}

// Register runs the full hand-off for a session whose identity record is
// complete. It never returns an error: every failure is folded into a
// user-visible reply with ok=false, leaving the session retryable.
func (c *Coordinator) Register(ctx context.Context, s *statex.Session) (reply string, ok bool) {
	patient, err := c.clinic.CreatePatient(ctx, s.Identity)
	if err != nil {
		return createPatientReply(err), false
	}

	analysis, err := c.model.AnalyzeTestimony(ctx, s.Testimony)
	if err != nil {
		// transient analysis failure degrades to an empty analysis
		log.Warn().Err(err).Str("user_id", s.UserID).Msg("testimony analysis failed")
		analysis = contractx.Analysis{}
	}

	professionalID, found := c.resolveProfessional(ctx, analysis.RecommendedSpecialty)
	if !found {
		// the created patient record is retained; nothing to roll back
		return replyNoProfessional, false
	}

	// best-effort: appointment failure never gates the reply
	if err := c.clinic.CreateAppointment(ctx, contractx.Appointment{
		PatientID:      patient.ID,
		ProfessionalID: professionalID,
		Motive:         appointmentMotive,
		DateTime:       appointmentDateTime,
		Status:         appointmentStatus,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", s.UserID).Str("patient_id", patient.ID).Msg("appointment creation failed")
	}

	treatmentID := c.pickTreatment(ctx, s.Testimony)

	record := contractx.ClinicalRecord{
		PatientID:         patient.ID,
		ProfessionalID:    professionalID,
		TreatmentID:       treatmentID,
		CreatedAt:         c.now().UTC().Format(time.RFC3339),
		ProfessionalNotes: analysis.ProfessionalNotes,
		Diagnosis:         analysis.Diagnosis,
		FollowUpPlan:      analysis.FollowUpPlan,
		Observations:      "",
	}
	if err := c.clinic.CreateClinicalRecord(ctx, record); err != nil {
		var statusErr *clinicx.StatusError
		if !errors.As(err, &statusErr) {
			return replyUnexpected, false
		}
		log.Warn().Err(err).Str("user_id", s.UserID).Msg("clinical record creation rejected")
	}

	return fmt.Sprintf(replySuccessFmt, s.Identity.Name), true
}

func createPatientReply(err error) string {
	var statusErr *clinicx.StatusError
	switch {
	case errors.Is(err, clinicx.ErrNoPatientID):
		return replyNoPatientID
	case errors.As(err, &statusErr), errors.Is(err, clinicx.ErrUnauthorized):
		return replyBackendRejected
	default:
		return replyUnexpected
	}
}

// resolveProfessional picks the first professional whose specialty contains
// the recommendation (case-insensitive), falling back to the first in the
// list. An empty or unavailable list yields found=false.
func (c *Coordinator) resolveProfessional(ctx context.Context, specialty string) (string, bool) {
	professionals, err := c.clinic.ListProfessionals(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("listing professionals failed")
		return "", false
	}
	if len(professionals) == 0 {
		return "", false
	}

	want := strings.ToLower(strings.TrimSpace(specialty))
	if want != "" {
		for _, p := range professionals {
			if strings.Contains(strings.ToLower(p.Specialty), want) {
				return p.ID, true
			}
		}
	}
	return professionals[0].ID, true
}

func (c *Coordinator) pickTreatment(ctx context.Context, testimony string) string {
	treatments, err := c.clinic.ListTreatments(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("listing treatments failed")
		treatments = nil
	}

	id, err := c.model.SelectTreatment(ctx, testimony, treatments)
	if err != nil {
		log.Warn().Err(err).Msg("treatment selection failed")
		return ""
	}
	return strings.TrimSpace(id)
}
