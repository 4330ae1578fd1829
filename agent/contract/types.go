package contract

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message in the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Identity holds the five fields required to register a patient. JSON tags
// match the clinical backend's wire format.
type Identity struct {
	Name       string `json:"nombre"`
	Surname    string `json:"apellido"`
	NationalID string `json:"dni"`
	Phone      string `json:"celular"`
	Email      string `json:"correo"`
}

// identityFieldOrder fixes the order in which missing fields are reported.
var identityFieldOrder = []string{"nombre", "apellido", "dni", "celular", "correo"}

func (id Identity) field(name string) string {
	switch name {
	case "nombre":
		return id.Name
	case "apellido":
		return id.Surname
	case "dni":
		return id.NationalID
	case "celular":
		return id.Phone
	case "correo":
		return id.Email
	}
	return ""
}

// Missing lists the names of the fields that are still empty.
func (id Identity) Missing() []string {
	var missing []string
	for _, name := range identityFieldOrder {
		if strings.TrimSpace(id.field(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (id Identity) Complete() bool {
	return len(id.Missing()) == 0
}

// Merge overlays non-empty fields from other. A field once set is never
// cleared by a later extraction that fails to mention it.
func (id *Identity) Merge(other Identity) {
	if v := strings.TrimSpace(other.Name); v != "" {
		id.Name = v
	}
	if v := strings.TrimSpace(other.Surname); v != "" {
		id.Surname = v
	}
	if v := strings.TrimSpace(other.NationalID); v != "" {
		id.NationalID = v
	}
	if v := strings.TrimSpace(other.Phone); v != "" {
		id.Phone = v
	}
	if v := strings.TrimSpace(other.Email); v != "" {
		id.Email = v
	}
}

// Analysis is the clinical reading of the accumulated testimony.
type Analysis struct {
	Diagnosis            string `json:"diagnostico"`
	ProfessionalNotes    string `json:"notasProfesional"`
	RecommendedSpecialty string `json:"especialidadRecomendada"`
	FollowUpPlan         string `json:"planSeguimiento"`
	LowIncome            bool   `json:"ameritaGratuito"`
}

// AnswerVerdict is the forced binary label for an anamnesis answer.
type AnswerVerdict string

const (
	VerdictClear    AnswerVerdict = "CLARO"
	VerdictConfused AnswerVerdict = "CONFUSO"
)

// Patient is the backend's view of a registered patient.
type Patient struct {
	ID string `json:"id"`
	Identity
}

type Professional struct {
	ID        string `json:"id"`
	Name      string `json:"nombre,omitempty"`
	Specialty string `json:"especialidad"`
}

type Treatment struct {
	ID          string `json:"id"`
	Name        string `json:"nombreTratamiento"`
	Description string `json:"descripcion"`
}

type Appointment struct {
	PatientID      string `json:"paciente"`
	ProfessionalID string `json:"profesionalSalud"`
	Motive         string `json:"motivo"`
	DateTime       string `json:"fechaHora"`
	Status         string `json:"estado"`
}

type ClinicalRecord struct {
	PatientID         string `json:"paciente"`
	ProfessionalID    string `json:"profesionalSalud"`
	TreatmentID       string `json:"tratamiento"`
	CreatedAt         string `json:"fechaCreacion"`
	ProfessionalNotes string `json:"notasProfesional"`
	Diagnosis         string `json:"diagnostico"`
	FollowUpPlan      string `json:"planSeguimiento"`
	Observations      string `json:"observaciones"`
}
