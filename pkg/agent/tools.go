package agent

import (
	"context"

	"github.com/openai/openai-go"

	"github.com/minhyannv/weatherbot-go/pkg/apperr"
	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
)

type tool interface {
	definition() openai.ChatCompletionToolParam
	execute(ctx context.Context, argText string) (string, error)
	name() string
}

// registry holds the functions declared to the model.
type registry struct {
	tools   map[string]tool
	params  []openai.ChatCompletionToolParam
	logger  loggerpkg.Logger
	verbose bool
}

func newRegistry(logger loggerpkg.Logger, verbose bool, tools ...tool) *registry {
	r := &registry{
		tools:   make(map[string]tool, len(tools)),
		logger:  logger,
		verbose: verbose,
	}
	for _, t := range tools {
		r.register(t)
	}
	return r
}

func (r *registry) register(t tool) {
	r.tools[t.name()] = t
	r.params = append(r.params, t.definition())
	loggerpkg.Debug(r.verbose, r.logger, "function registered", map[string]any{"name": t.name()})
}

func (r *registry) definitions() []openai.ChatCompletionToolParam {
	return r.params
}

// execute runs the named function. Errors are returned to the caller
// rather than reported back to the model.
func (r *registry) execute(ctx context.Context, call FunctionCall) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.New(apperr.ErrConnectivity, "execute "+call.Name, err)
	}
	t, ok := r.tools[call.Name]
	if !ok {
		return "", apperr.Newf(apperr.ErrArgumentParse, "execute function", "unknown function %q", call.Name)
	}
	loggerpkg.Debug(r.verbose, r.logger, "function call", map[string]any{
		"id":        call.ID,
		"name":      call.Name,
		"arguments": call.Arguments,
	})
	return t.execute(ctx, call.Arguments)
}
