package intakenode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
)

func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.UserID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		st = statex.NewSession(in.UserID, in.Now)
	}

	in.Session = st
	return in, nil
}
