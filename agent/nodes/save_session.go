package intakenode

import (
	"context"
	"fmt"

	anamnesisx "github.com/hampiwasi/intake/agent/anamnesis"
	contractx "github.com/hampiwasi/intake/agent/contract"
	statex "github.com/hampiwasi/intake/agent/state"
)

func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(len(anamnesisx.Questions)); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}
	return in, nil
}
