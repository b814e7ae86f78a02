package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/minhyannv/weatherbot-go/pkg/apperr"
	configpkg "github.com/minhyannv/weatherbot-go/pkg/config"
	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
	"github.com/minhyannv/weatherbot-go/pkg/weather"
)

// Assistant holds the conversation transcript and the provider clients.
type Assistant struct {
	config     configpkg.Config
	client     openai.Client
	functions  *registry
	transcript Transcript
	sessionID  string

	logger  loggerpkg.Logger
	verbose bool
}

// New initializes an Assistant from cfg. Unless a fetcher is injected with
// WithWeatherFetcher, the OpenWeatherMap client is built from cfg too.
func New(cfg configpkg.Config, opts ...Option) (*Assistant, error) {
	cfg = configpkg.Normalize(cfg)
	deps := assistantDeps{logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	if deps.logger == nil {
		deps.logger = loggerpkg.NopLogger{}
	}
	if deps.sessionID == "" {
		deps.sessionID = uuid.NewString()
	}
	logger := loggerpkg.With(deps.logger, "session", deps.sessionID)

	if cfg.OpenAIAPIKey == "" {
		return nil, apperr.Newf(apperr.ErrConfiguration, "new assistant", "%s is not set", configpkg.EnvOpenAIAPIKey)
	}

	httpClient := deps.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	fetcher := deps.weather
	if fetcher == nil {
		if cfg.WeatherAPIKey == "" {
			return nil, apperr.Newf(apperr.ErrConfiguration, "new assistant", "%s is not set", configpkg.EnvWeatherAPIKey)
		}
		fetcher = weather.NewClient(weather.Options{
			APIKey:     cfg.WeatherAPIKey,
			BaseURL:    cfg.WeatherBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
			Verbose:    cfg.Verbose,
		})
	}

	loggerpkg.Debug(cfg.Verbose, logger, "assistant init", map[string]any{
		"model":            cfg.Model,
		"openai_base_url":  cfg.OpenAIBaseURL,
		"weather_base_url": cfg.WeatherBaseURL,
		"http_timeout":     cfg.HTTPTimeout.String(),
	})

	return &Assistant{
		config:     cfg,
		client:     newOpenAIClient(cfg, httpClient),
		functions:  newRegistry(logger, cfg.Verbose, &weatherTool{fetcher: fetcher}),
		transcript: Transcript{{Role: RoleSystem, Content: cfg.SystemPrompt}},
		sessionID:  deps.sessionID,
		logger:     logger,
		verbose:    cfg.Verbose,
	}, nil
}

func newOpenAIClient(cfg configpkg.Config, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openai.NewClient(opts...)
}

// SessionID returns the id attached to this assistant's log lines.
func (a *Assistant) SessionID() string {
	return a.sessionID
}

// Transcript returns a copy of the conversation so far.
func (a *Assistant) Transcript() Transcript {
	return a.transcript.Clone()
}

// Reset clears conversation history and keeps only the system prompt.
func (a *Assistant) Reset() {
	a.transcript = Transcript{{Role: RoleSystem, Content: a.config.SystemPrompt}}
}

// Ask appends userInput to the transcript, runs one conversation turn and
// returns the assistant's reply. On error the transcript is left as it was
// before the call.
func (a *Assistant) Ask(ctx context.Context, userInput string) (Message, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Message{}, errors.New("user input is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	previousLen := len(a.transcript)
	a.transcript = append(a.transcript, Message{Role: RoleUser, Content: userInput})

	reply, err := a.runTurn(ctx)
	if err != nil {
		a.transcript = a.transcript[:previousLen]
		loggerpkg.Error(a.logger, "turn failed", map[string]any{"error": err.Error()})
		return Message{}, err
	}
	return reply, nil
}

// runTurn performs the first model call and, if the model asks for the
// weather function, the lookup and the follow-up call.
func (a *Assistant) runTurn(ctx context.Context) (Message, error) {
	first, err := a.complete(ctx, true)
	if err != nil {
		return Message{}, err
	}

	if len(first.ToolCalls) == 0 {
		return a.appendAssistant(first.Content), nil
	}
	if len(first.ToolCalls) > 1 {
		loggerpkg.Warn(a.logger, "model requested several function calls; using the first", map[string]any{
			"count": len(first.ToolCalls),
		})
	}

	requested := first.ToolCalls[0]
	call := FunctionCall{
		ID:        requested.ID,
		Name:      requested.Function.Name,
		Arguments: requested.Function.Arguments,
	}
	output, err := a.functions.execute(ctx, call)
	if err != nil {
		return Message{}, err
	}
	a.transcript = append(a.transcript, Message{
		Role:    RoleFunction,
		Name:    call.Name,
		Content: output,
		Call:    &call,
	})
	a.debug("function result appended", map[string]any{"name": call.Name, "bytes": len(output)})

	second, err := a.complete(ctx, false)
	if err != nil {
		return Message{}, err
	}
	if len(second.ToolCalls) > 0 {
		return Message{}, apperr.Newf(apperr.ErrUpstreamData, "chat completion", "function call returned while no functions were declared")
	}
	return a.appendAssistant(second.Content), nil
}

func (a *Assistant) appendAssistant(content string) Message {
	msg := Message{Role: RoleAssistant, Content: content}
	a.transcript = append(a.transcript, msg)
	return msg
}

// complete sends the transcript to the chat endpoint. withFunctions attaches
// the function declarations and enables automatic selection.
func (a *Assistant) complete(ctx context.Context, withFunctions bool) (openai.ChatCompletionMessage, error) {
	messages, err := toOpenAIMessages(a.transcript)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.config.Model),
		Messages: messages,
	}
	if withFunctions {
		params.Tools = a.functions.definitions()
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
		params.ParallelToolCalls = openai.Bool(false)
	}

	a.debug("chat completion request", map[string]any{
		"messages":       len(messages),
		"with_functions": withFunctions,
	})
	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, classifyChatError(err)
	}
	if len(completion.Choices) == 0 {
		return openai.ChatCompletionMessage{}, apperr.Newf(apperr.ErrUpstreamData, "chat completion", "empty completion choices")
	}
	choice := completion.Choices[0]
	a.debug("chat completion received", map[string]any{
		"finish_reason": choice.FinishReason,
		"tool_calls":    len(choice.Message.ToolCalls),
	})
	return choice.Message, nil
}

func (a *Assistant) debug(msg string, obj any) {
	loggerpkg.Debug(a.verbose, a.logger, msg, obj)
}

// toOpenAIMessages renders the transcript on the wire. A function-result
// message expands to the assistant tool-call turn followed by the tool
// message answering it.
func toOpenAIMessages(t Transcript) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(t)+1)
	for i, msg := range t {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case RoleFunction:
			if msg.Call == nil {
				return nil, fmt.Errorf("transcript message %d: function result %q has no originating call", i, msg.Name)
			}
			out = append(out,
				openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
							ID: msg.Call.ID,
							Function: openai.ChatCompletionMessageToolCallFunctionParam{
								Name:      msg.Call.Name,
								Arguments: msg.Call.Arguments,
							},
						}},
					},
				},
				openai.ToolMessage(msg.Content, msg.Call.ID),
			)
		default:
			return nil, fmt.Errorf("transcript message %d: unsupported role %q", i, msg.Role)
		}
	}
	return out, nil
}

// classifyChatError maps chat client failures onto the apperr kinds.
func classifyChatError(err error) error {
	const op = "chat completion"
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.New(apperr.ErrConfiguration, op, err)
		default:
			return apperr.New(apperr.ErrUpstreamData, op, err)
		}
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.New(apperr.ErrConnectivity, op, err)
	}
	return apperr.New(apperr.ErrUpstreamData, op, err)
}
