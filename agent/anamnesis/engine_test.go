package anamnesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
)

// fakeModel scripts only the calls the questionnaire makes.
type fakeModel struct {
	verdict     contractx.AnswerVerdict
	verdictErr  error
	complete    bool
	completeErr error

	classified []string
	summaries  []string
}

func (f *fakeModel) ClassifyAnswer(_ context.Context, question, _ string) (contractx.AnswerVerdict, error) {
	f.classified = append(f.classified, question)
	if f.verdictErr != nil {
		return "", f.verdictErr
	}
	return f.verdict, nil
}

func (f *fakeModel) JudgeCompleteness(_ context.Context, summary string) (bool, error) {
	f.summaries = append(f.summaries, summary)
	if f.completeErr != nil {
		return false, f.completeErr
	}
	return f.complete, nil
}

func (f *fakeModel) Reply(context.Context, []contractx.Turn) (string, error) {
	return "", errors.New("unexpected Reply call")
}

func (f *fakeModel) ExtractIdentity(context.Context, string) (contractx.Identity, error) {
	return contractx.Identity{}, errors.New("unexpected ExtractIdentity call")
}

func (f *fakeModel) AnalyzeTestimony(context.Context, string) (contractx.Analysis, error) {
	return contractx.Analysis{}, errors.New("unexpected AnalyzeTestimony call")
}

func (f *fakeModel) SelectTreatment(context.Context, string, []contractx.Treatment) (string, error) {
	return "", errors.New("unexpected SelectTreatment call")
}

func sessionAtQuestion(t *testing.T, cursor int) *statex.Session {
	t.Helper()
	s := statex.NewSession("u1", time.Now())
	s.Stage = statex.StageAnamnesis
	for i := 0; i < cursor; i++ {
		if err := s.RecordAnswer(Questions[i], "respuesta previa"); err != nil {
			t.Fatalf("seed answer %d: %v", i, err)
		}
	}
	return s
}

func TestStepClearAnswerAdvances(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdict: contractx.VerdictClear}
	s := sessionAtQuestion(t, 0)

	reply, err := NewEngine(model).Step(context.Background(), s, "me siento sin energía")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != Questions[1] {
		t.Fatalf("reply = %q, want next question", reply)
	}
	if s.NextQuestion != 1 {
		t.Fatalf("NextQuestion = %d, want 1", s.NextQuestion)
	}
	if s.Stage != statex.StageAnamnesis {
		t.Fatalf("Stage = %q", s.Stage)
	}
}

func TestStepConfusedDoesNotAdvance(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdict: contractx.VerdictConfused}
	s := sessionAtQuestion(t, 3)

	reply, err := NewEngine(model).Step(context.Background(), s, "¿qué?")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != ConfusedReply(Questions[3]) {
		t.Fatalf("reply = %q, want rephrase of question 3", reply)
	}
	if s.NextQuestion != 3 {
		t.Fatalf("NextQuestion = %d, want 3", s.NextQuestion)
	}
	if len(model.summaries) != 0 {
		t.Fatal("completeness must not run on a confused answer")
	}
}

func TestStepClassifierErrorAcceptsAnswer(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdictErr: errors.New("model down")}
	s := sessionAtQuestion(t, 0)

	reply, err := NewEngine(model).Step(context.Background(), s, "estoy triste")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != Questions[1] {
		t.Fatalf("reply = %q, want next question", reply)
	}
	if s.NextQuestion != 1 {
		t.Fatalf("NextQuestion = %d, want 1", s.NextQuestion)
	}
}

func TestStepEarlyCompletionTransitions(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdict: contractx.VerdictClear, complete: true}
	s := sessionAtQuestion(t, 4)

	reply, err := NewEngine(model).Step(context.Background(), s, "ya lo conté todo")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != TransitionReply() {
		t.Fatalf("reply = %q, want transition reply", reply)
	}
	if s.Stage != statex.StageAwaitingConsent {
		t.Fatalf("Stage = %q, want awaiting_consent", s.Stage)
	}
	if !strings.Contains(s.Testimony, Questions[4]+": ya lo conté todo") {
		t.Fatalf("testimony missing summary: %q", s.Testimony)
	}
}

func TestStepLastQuestionTransitionsRegardless(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdict: contractx.VerdictClear, complete: false}
	s := sessionAtQuestion(t, len(Questions)-1)

	reply, err := NewEngine(model).Step(context.Background(), s, "quiero volver a estar bien")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != TransitionReply() {
		t.Fatalf("reply = %q, want transition reply", reply)
	}
	if s.Stage != statex.StageAwaitingConsent {
		t.Fatalf("Stage = %q, want awaiting_consent", s.Stage)
	}
	if s.NextQuestion != len(Questions) {
		t.Fatalf("NextQuestion = %d, want %d", s.NextQuestion, len(Questions))
	}
}

func TestStepCompletenessErrorContinues(t *testing.T) {
	t.Parallel()

	model := &fakeModel{verdict: contractx.VerdictClear, completeErr: errors.New("model down")}
	s := sessionAtQuestion(t, 1)

	reply, err := NewEngine(model).Step(context.Background(), s, "desde hace meses")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if reply != Questions[2] {
		t.Fatalf("reply = %q, want question 2", reply)
	}
	if s.Stage != statex.StageAnamnesis {
		t.Fatalf("Stage = %q, want anamnesis", s.Stage)
	}
}
