// Package orchestrator is the entry point of the intake conversation: one
// inbound message in, one reply out, with all stage policy behind a
// compiled turn graph. Turns for the same user identifier are serialized.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	anamnesisx "github.com/hampiwasi/intake/agent/anamnesis"
	contractx "github.com/hampiwasi/intake/agent/contract"
	corpusx "github.com/hampiwasi/intake/agent/corpus"
	languagex "github.com/hampiwasi/intake/agent/language"
	nodex "github.com/hampiwasi/intake/agent/nodes"
	promptx "github.com/hampiwasi/intake/agent/prompt"
	registrationx "github.com/hampiwasi/intake/agent/registration"
	statex "github.com/hampiwasi/intake/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

// Config tunes the pluggable keyword classifiers. Empty lists fall back to
// the built-in defaults.
type Config struct {
	MinorityMarkers []string
	Affirmations    []string
}

type Orchestrator struct {
	store statex.Store
	deps  nodex.Deps

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	locks sessionLocks
	now   func() time.Time
}

func New(
	store statex.Store,
	model contractx.Engine,
	clinic contractx.Clinic,
	corpus *corpusx.Corpus,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if model == nil {
		return nil, errors.New("model engine is required")
	}
	if clinic == nil {
		return nil, errors.New("clinic client is required")
	}
	if corpus == nil {
		corpus = corpusx.Empty()
	}

	markers := languagex.QuechuaMarkers()
	if len(cfg.MinorityMarkers) > 0 {
		markers = languagex.NewMatcher(cfg.MinorityMarkers...)
	}
	affirmations := languagex.Affirmations()
	if len(cfg.Affirmations) > 0 {
		affirmations = languagex.NewMatcher(cfg.Affirmations...)
	}

	o := &Orchestrator{
		store: store,
		deps: nodex.Deps{
			Model:        model,
			Corpus:       corpus,
			Markers:      markers,
			Affirmations: affirmations,
			Anamnesis:    anamnesisx.NewEngine(model),
			Registrar:    registrationx.New(model, clinic),
			Persona:      promptx.Load().Persona,
		},
		now: time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage processes one inbound message for the given user. Calls for
// the same user identifier are mutually exclusive so the session invariants
// cannot be corrupted by interleaved turns.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID string, text string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUser
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidMessage
	}

	unlock := o.locks.lock(userID)
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID: userID,
		Text:   text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// sessionLocks hands out one mutex per user identifier.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *sessionLocks) lock(userID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	lk, ok := l.m[userID]
	if !ok {
		lk = &sync.Mutex{}
		l.m[userID] = lk
	}
	l.mu.Unlock()

	lk.Lock()
	return lk.Unlock
}
