package intakenode

import (
	"fmt"
	"strings"

	contractx "github.com/hampiwasi/intake/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, ErrEmptyReply
	}
	return GraphOutput{Reply: reply}, nil
}
