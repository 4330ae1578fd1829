// Package llm implements the generation/classification collaborator on top
// of the OpenAI chat completions API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	contractx "github.com/hampiwasi/intake/agent/contract"
	promptx "github.com/hampiwasi/intake/agent/prompt"
)

// Sampling temperatures per call shape. Classification and extraction are
// deterministic or near-deterministic to minimize variance.
const (
	tempReply        = 0.7
	tempClassify     = 0.0
	tempCompleteness = 0.0
	tempExtract      = 0.2
	tempAnalysis     = 0.4
	tempTreatment    = 0.2
)

type Engine struct {
	client  *openaisdk.Client
	model   string
	prompts promptx.Set
}

var _ contractx.Engine = (*Engine)(nil)

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	client := openaisdk.NewClient(opts...)
	return &Engine{
		client:  &client,
		model:   strings.TrimSpace(cfg.Model),
		prompts: promptx.Load(),
	}, nil
}

func (e *Engine) complete(ctx context.Context, turns []contractx.Turn, temperature float64) (string, error) {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(t.Content))
		case contractx.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(t.Content))
		}
	}

	resp, err := e.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(e.model),
		Messages:    msgs,
		Temperature: openaisdk.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (e *Engine) ask(ctx context.Context, prompt string, temperature float64) (string, error) {
	return e.complete(ctx, []contractx.Turn{{Role: contractx.RoleUser, Content: prompt}}, temperature)
}

func (e *Engine) Reply(ctx context.Context, turns []contractx.Turn) (string, error) {
	return e.complete(ctx, turns, tempReply)
}

func (e *Engine) ClassifyAnswer(ctx context.Context, question, answer string) (contractx.AnswerVerdict, error) {
	out, err := e.ask(ctx, fmt.Sprintf(e.prompts.AnswerCheck, question, answer), tempClassify)
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToUpper(out), string(contractx.VerdictConfused)) {
		return contractx.VerdictConfused, nil
	}
	return contractx.VerdictClear, nil
}

func (e *Engine) JudgeCompleteness(ctx context.Context, summary string) (bool, error) {
	out, err := e.ask(ctx, fmt.Sprintf(e.prompts.Completeness, summary), tempCompleteness)
	if err != nil {
		return false, err
	}
	return strings.ToUpper(out) == "SI", nil
}

func (e *Engine) ExtractIdentity(ctx context.Context, text string) (contractx.Identity, error) {
	out, err := e.ask(ctx, fmt.Sprintf(e.prompts.IdentityExtract, text), tempExtract)
	if err != nil {
		return contractx.Identity{}, err
	}

	var id contractx.Identity
	js := firstJSONObject(out)
	if js == "" {
		log.Warn().Str("completion", out).Msg("identity extraction returned no json object")
		return contractx.Identity{}, nil
	}
	if err := json.Unmarshal([]byte(js), &id); err != nil {
		log.Warn().Err(err).Msg("identity extraction returned malformed json")
		return contractx.Identity{}, nil
	}
	return id, nil
}

func (e *Engine) AnalyzeTestimony(ctx context.Context, testimony string) (contractx.Analysis, error) {
	out, err := e.ask(ctx, fmt.Sprintf(e.prompts.Analysis, testimony), tempAnalysis)
	if err != nil {
		return contractx.Analysis{}, err
	}

	var analysis contractx.Analysis
	js := firstJSONObject(out)
	if js == "" {
		log.Warn().Str("completion", out).Msg("testimony analysis returned no json object")
		return contractx.Analysis{}, nil
	}
	if err := json.Unmarshal([]byte(js), &analysis); err != nil {
		log.Warn().Err(err).Msg("testimony analysis returned malformed json")
		return contractx.Analysis{}, nil
	}
	return analysis, nil
}

func (e *Engine) SelectTreatment(ctx context.Context, testimony string, treatments []contractx.Treatment) (string, error) {
	lines := make([]string, 0, len(treatments))
	for _, t := range treatments {
		lines = append(lines, fmt.Sprintf("%s - %s: %s", t.ID, t.Name, t.Description))
	}
	return e.ask(ctx, fmt.Sprintf(e.prompts.TreatmentPick, testimony, strings.Join(lines, "\n")), tempTreatment)
}
