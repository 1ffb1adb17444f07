// Package openrouter drives an OpenAI-compatible chat-completion endpoint
// (OpenRouter by default) as the agent's completion backend.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("openrouter api key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("openrouter model is required")
	}
	return nil
}

// NewClient creates an OpenAI SDK client pointed at the configured base
// URL, with the OpenRouter attribution headers when provided.
func NewClient(cfg Config) *openaisdk.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}

// Backend adapts the chat-completion API to contract.CompletionBackend,
// implementing the explicit two-phase tool protocol.
type Backend struct {
	client      *openaisdk.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ contractx.CompletionBackend = (*Backend)(nil)

func NewBackend(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Backend{
		client:      NewClient(cfg),
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxCompletionToken),
	}, nil
}

func (b *Backend) Complete(ctx context.Context, req contractx.CompletionRequest) (contractx.CompletionResponse, error) {
	msgs := baseMessages(req)
	return b.invoke(ctx, msgs, req.Tools, true)
}

// Resume replays the conversation plus the tool exchange so the backend
// can phrase the final reply from the tool outcome.
func (b *Backend) Resume(ctx context.Context, req contractx.CompletionRequest, call contractx.ToolCall, outcome contractx.ToolOutcome) (contractx.CompletionResponse, error) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return contractx.CompletionResponse{}, fmt.Errorf("%w: marshal tool outcome: %v", contractx.ErrBackendUnavailable, err)
	}

	msgs := baseMessages(req)
	msgs = append(msgs, openaisdk.ChatCompletionMessageParamUnion{
		OfAssistant: &openaisdk.ChatCompletionAssistantMessageParam{
			ToolCalls: []openaisdk.ChatCompletionMessageToolCallUnionParam{
				{
					OfFunction: &openaisdk.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openaisdk.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(call.Arguments),
						},
					},
				},
			},
		},
	})
	msgs = append(msgs, openaisdk.ToolMessage(string(payload), call.ID))

	resp, err := b.invoke(ctx, msgs, req.Tools, false)
	if err != nil {
		return contractx.CompletionResponse{}, err
	}
	if resp.ToolCall != nil {
		return contractx.CompletionResponse{}, fmt.Errorf("%w: backend requested a second tool call during resume", contractx.ErrBackendUnavailable)
	}
	return resp, nil
}

func (b *Backend) invoke(ctx context.Context, msgs []openaisdk.ChatCompletionMessageParamUnion, tools []contractx.ToolInfo, allowTools bool) (contractx.CompletionResponse, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(b.model),
		Messages:    msgs,
		Temperature: openaisdk.Float(b.temperature),
		MaxTokens:   openaisdk.Int(b.maxTokens),
	}
	if allowTools && len(tools) > 0 {
		declared := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(tools))
		for _, t := range tools {
			declared = append(declared, openaisdk.ChatCompletionFunctionTool(openaisdk.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openaisdk.String(t.Description),
				Parameters:  openaisdk.FunctionParameters(t.Parameters),
			}))
		}
		params.Tools = declared
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return contractx.CompletionResponse{}, fmt.Errorf("%w: %v", contractx.ErrBackendTimeout, err)
		}
		return contractx.CompletionResponse{}, fmt.Errorf("%w: %v", contractx.ErrBackendUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.CompletionResponse{}, fmt.Errorf("%w: completion has no choices", contractx.ErrBackendUnavailable)
	}

	message := completion.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		tc := message.ToolCalls[0]
		return contractx.CompletionResponse{
			ToolCall: &contractx.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			},
		}, nil
	}

	return contractx.CompletionResponse{Text: message.Content}, nil
}

func baseMessages(req contractx.CompletionRequest) []openaisdk.ChatCompletionMessageParamUnion {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	msgs = append(msgs, openaisdk.SystemMessage(req.System))
	for _, m := range req.History {
		switch m.Role {
		case contractx.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(m.Text))
		default:
			msgs = append(msgs, openaisdk.UserMessage(m.Text))
		}
	}
	return msgs
}
