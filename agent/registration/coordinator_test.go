package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
	clinicx "github.com/hampiwasi/intake/pkg/clinic"
)

type fakeModel struct {
	analysis    contractx.Analysis
	analysisErr error
	treatment   string
	treatErr    error
}

func (f *fakeModel) AnalyzeTestimony(context.Context, string) (contractx.Analysis, error) {
	if f.analysisErr != nil {
		return contractx.Analysis{}, f.analysisErr
	}
	return f.analysis, nil
}

func (f *fakeModel) SelectTreatment(context.Context, string, []contractx.Treatment) (string, error) {
	if f.treatErr != nil {
		return "", f.treatErr
	}
	return f.treatment, nil
}

func (f *fakeModel) Reply(context.Context, []contractx.Turn) (string, error) {
	return "", errors.New("unexpected Reply call")
}

func (f *fakeModel) ClassifyAnswer(context.Context, string, string) (contractx.AnswerVerdict, error) {
	return "", errors.New("unexpected ClassifyAnswer call")
}

func (f *fakeModel) JudgeCompleteness(context.Context, string) (bool, error) {
	return false, errors.New("unexpected JudgeCompleteness call")
}

func (f *fakeModel) ExtractIdentity(context.Context, string) (contractx.Identity, error) {
	return contractx.Identity{}, errors.New("unexpected ExtractIdentity call")
}

type fakeClinic struct {
	patient       contractx.Patient
	patientErr    error
	professionals []contractx.Professional
	prosErr       error
	treatments    []contractx.Treatment
	apptErr       error
	recordErr     error

	appointments []contractx.Appointment
	records      []contractx.ClinicalRecord
}

func (f *fakeClinic) CreatePatient(context.Context, contractx.Identity) (contractx.Patient, error) {
	if f.patientErr != nil {
		return contractx.Patient{}, f.patientErr
	}
	return f.patient, nil
}

func (f *fakeClinic) ListProfessionals(context.Context) ([]contractx.Professional, error) {
	if f.prosErr != nil {
		return nil, f.prosErr
	}
	return f.professionals, nil
}

func (f *fakeClinic) CreateAppointment(_ context.Context, appt contractx.Appointment) error {
	f.appointments = append(f.appointments, appt)
	return f.apptErr
}

func (f *fakeClinic) ListTreatments(context.Context) ([]contractx.Treatment, error) {
	return f.treatments, nil
}

func (f *fakeClinic) CreateClinicalRecord(_ context.Context, rec contractx.ClinicalRecord) error {
	f.records = append(f.records, rec)
	return f.recordErr
}

func registrableSession() *statex.Session {
	s := statex.NewSession("u1", time.Now())
	s.Stage = statex.StageAwaitingIdentity
	s.Testimony = " estoy muy triste desde hace meses"
	s.Identity = contractx.Identity{
		Name:       "Ana",
		Surname:    "Pérez",
		NationalID: "12345678",
		Phone:      "999888777",
		Email:      "ana@x.com",
	}
	return s
}

func TestRegisterHappyPath(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		analysis: contractx.Analysis{
			Diagnosis:            "ansiedad",
			ProfessionalNotes:    "seguimiento semanal",
			RecommendedSpecialty: "terapia familiar",
			FollowUpPlan:         "plan inicial",
		},
		treatment: "t-1",
	}
	clinic := &fakeClinic{
		patient: contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{
			{ID: "pro-1", Specialty: "Psicología clínica"},
			{ID: "pro-2", Specialty: "Terapia Familiar Sistémica"},
		},
		treatments: []contractx.Treatment{{ID: "t-1", Name: "TCC"}},
	}

	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	reply, ok := New(model, clinic).WithClock(func() time.Time { return fixed }).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatalf("Register() ok = false, reply = %q", reply)
	}
	if !strings.Contains(reply, "Ana") {
		t.Fatalf("reply does not greet the patient: %q", reply)
	}

	if len(clinic.appointments) != 1 {
		t.Fatalf("appointments = %d, want 1", len(clinic.appointments))
	}
	appt := clinic.appointments[0]
	if appt.PatientID != "p-1" || appt.ProfessionalID != "pro-2" {
		t.Fatalf("appointment = %+v", appt)
	}
	if appt.Status != "PENDIENTE" {
		t.Fatalf("appointment status = %q", appt.Status)
	}

	if len(clinic.records) != 1 {
		t.Fatalf("records = %d, want 1", len(clinic.records))
	}
	rec := clinic.records[0]
	if rec.PatientID != "p-1" || rec.ProfessionalID != "pro-2" || rec.TreatmentID != "t-1" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Diagnosis != "ansiedad" || rec.FollowUpPlan != "plan inicial" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.CreatedAt != fixed.Format(time.RFC3339) {
		t.Fatalf("record timestamp = %q", rec.CreatedAt)
	}
}

func TestRegisterPatientRejected(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{patientErr: &clinicx.StatusError{Code: 400, Body: "dni inválido"}}
	reply, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if ok {
		t.Fatal("Register() ok = true, want false")
	}
	if !strings.Contains(reply, "problema al registrar") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestRegisterMissingPatientID(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{patientErr: clinicx.ErrNoPatientID}
	reply, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if ok {
		t.Fatal("Register() ok = true, want false")
	}
	if !strings.Contains(reply, "ID de paciente") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestRegisterNoProfessionalAvailable(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{patient: contractx.Patient{ID: "p-1"}}
	reply, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if ok {
		t.Fatal("Register() ok = true, want false")
	}
	if !strings.Contains(reply, "profesional disponible") {
		t.Fatalf("reply = %q", reply)
	}
	if len(clinic.appointments) != 0 {
		t.Fatal("no appointment should be booked without a professional")
	}
}

func TestRegisterUnknownSpecialtyFallsBackToFirst(t *testing.T) {
	t.Parallel()

	model := &fakeModel{analysis: contractx.Analysis{RecommendedSpecialty: "neurocirugía"}}
	clinic := &fakeClinic{
		patient: contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{
			{ID: "pro-7", Specialty: "Psicología clínica"},
			{ID: "pro-8", Specialty: "Terapia familiar"},
		},
	}

	_, ok := New(model, clinic).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatal("Register() ok = false")
	}
	if clinic.appointments[0].ProfessionalID != "pro-7" {
		t.Fatalf("professional = %q, want first of list", clinic.appointments[0].ProfessionalID)
	}
}

func TestRegisterAppointmentFailureIsTolerated(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{
		patient:       contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{{ID: "pro-1", Specialty: "Psicología clínica"}},
		apptErr:       &clinicx.StatusError{Code: 409, Body: "agenda llena"},
	}

	reply, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatalf("Register() ok = false, reply = %q", reply)
	}
	if len(clinic.records) != 1 {
		t.Fatal("clinical record must still be written")
	}
}

func TestRegisterRecordRejectionIsTolerated(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{
		patient:       contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{{ID: "pro-1", Specialty: "Psicología clínica"}},
		recordErr:     &clinicx.StatusError{Code: 422, Body: "campo faltante"},
	}

	_, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatal("Register() ok = false, want true on backend rejection of the record")
	}
}

func TestRegisterRecordTransportFailure(t *testing.T) {
	t.Parallel()

	clinic := &fakeClinic{
		patient:       contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{{ID: "pro-1", Specialty: "Psicología clínica"}},
		recordErr:     errors.New("connection reset"),
	}

	reply, ok := New(&fakeModel{}, clinic).Register(context.Background(), registrableSession())
	if ok {
		t.Fatal("Register() ok = true, want false on transport failure")
	}
	if !strings.Contains(reply, "error inesperado") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestRegisterAnalysisFailureDegrades(t *testing.T) {
	t.Parallel()

	model := &fakeModel{analysisErr: errors.New("model down"), treatErr: errors.New("model down")}
	clinic := &fakeClinic{
		patient:       contractx.Patient{ID: "p-1"},
		professionals: []contractx.Professional{{ID: "pro-1", Specialty: "Psicología clínica"}},
	}

	_, ok := New(model, clinic).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatal("Register() ok = false")
	}
	rec := clinic.records[0]
	if rec.Diagnosis != "" || rec.TreatmentID != "" {
		t.Fatalf("record = %+v, want empty analysis fields", rec)
	}
}

// TestRegisterAgainstHTTPBackend runs the full hand-off through the real
// HTTP client, with an expired bearer token on the first patient call.
func TestRegisterAgainstHTTPBackend(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := map[string]int{}
	const goodToken = "tok-fresh"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls[r.URL.Path]++
		mu.Unlock()

		if r.URL.Path == "/auth/login" {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": goodToken})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+goodToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/pacientes":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "p-9"})
		case "/profesionales-salud":
			_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "pro-1", "especialidad": "Psicología clínica"}})
		case "/tratamientos":
			_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "t-1", "nombreTratamiento": "TCC", "descripcion": "x"}})
		case "/citas", "/historias-clinicas":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := clinicx.NewClient(clinicx.Config{BaseURL: srv.URL, Email: "bot@clinic.test", Password: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	model := &fakeModel{
		analysis:  contractx.Analysis{RecommendedSpecialty: "psicología"},
		treatment: "t-1",
	}
	reply, ok := New(model, client).Register(context.Background(), registrableSession())
	if !ok {
		t.Fatalf("Register() ok = false, reply = %q", reply)
	}
	if !strings.Contains(reply, "Ana") {
		t.Fatalf("reply = %q", reply)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls["/pacientes"] != 2 {
		t.Fatalf("/pacientes called %d times, want 401 then retry", calls["/pacientes"])
	}
	if calls["/auth/login"] != 1 {
		t.Fatalf("/auth/login called %d times, want 1", calls["/auth/login"])
	}
	if calls["/historias-clinicas"] != 1 {
		t.Fatalf("/historias-clinicas called %d times, want 1", calls["/historias-clinicas"])
	}
}
