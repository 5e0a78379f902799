package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"spot-trader/internal/api"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/store"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

var _ interfaces.Decider = (*OpenAIDecider)(nil)

// OpenAIDecider asks a chat completion model to classify the current cycle.
// Any OpenAI compatible endpoint works through advisor.base_url.
type OpenAIDecider struct {
	cfg     *store.Config
	baseURL string
	apiKey  string
	client  *api.Client
}

func NewOpenAIDecider(cfg *store.Config) *OpenAIDecider {
	base := strings.TrimRight(cfg.Advisor.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	return &OpenAIDecider{
		cfg:     cfg,
		baseURL: base,
		apiKey:  apiKey,
		client: api.NewClient(
			api.WithBaseURL(base),
			api.WithBearer(apiKey),
			api.WithTimeout(30*time.Second),
			api.WithLogging(true),
		),
	}
}

func (d *OpenAIDecider) Decide(ctx context.Context, symbol string, latest types.Candle, scores map[types.Action]float64, ctxmap map[string]any) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if d.apiKey == "" {
		return types.Decision{}, errors.New("OPENAI_API_KEY missing")
	}

	user := map[string]any{"symbol": symbol, "latest": latest, "scores": scores, "context": ctxmap}
	ub, err := json.Marshal(user)
	if err != nil {
		return types.Decision{}, fmt.Errorf("encode state: %w", err)
	}
	prompt := fmt.Sprintf("You will receive state as JSON. Respond ONLY with compact JSON matching the schema.\nSchema:%s\nState:%s", d.cfg.Advisor.Schema, string(ub))

	body := map[string]any{
		"model":       d.cfg.Advisor.Model,
		"messages":    []map[string]string{{"role": "system", "content": d.cfg.Advisor.System}, {"role": "user", "content": prompt}},
		"temperature": d.cfg.Advisor.Temperature,
		"max_tokens":  d.cfg.Advisor.MaxTokens,
	}

	resp, err := d.client.POST(ctx, "/chat/completions", body)
	if err != nil {
		return types.Decision{}, fmt.Errorf("openai: %w", err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return types.Decision{}, err
	}

	if len(r.Choices) == 0 {
		return types.Decision{}, errors.New("no choices")
	}

	return parseDecision(r.Choices[0].Message.Content), nil
}

// parseDecision reads the model's JSON answer. Anything unusable becomes HOLD with 0 confidence.
func parseDecision(content string) types.Decision {
	out := strings.TrimSpace(content)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")

	var dres types.Decision
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &dres); err != nil {
		return types.Decision{Action: types.ActionHold, Reason: "invalid_json", Confidence: 0.0}
	}

	dres.Action = types.Action(strings.ToUpper(strings.TrimSpace(string(dres.Action))))
	switch dres.Action {
	case types.ActionBuy, types.ActionSell, types.ActionHold:
	default:
		dres.Action = types.ActionHold
	}
	if dres.Confidence < 0 || dres.Confidence > 1 {
		dres.Confidence = 0.0
	}
	return dres
}
