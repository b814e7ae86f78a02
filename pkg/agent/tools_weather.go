package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/openai/openai-go"

	"github.com/minhyannv/weatherbot-go/pkg/apperr"
	"github.com/minhyannv/weatherbot-go/pkg/weather"
)

// WeatherFunctionName is the function name declared to the model.
const WeatherFunctionName = "fetch_weather_from_api"

// WeatherFetcher looks up current weather for a location.
type WeatherFetcher interface {
	Fetch(ctx context.Context, location string) (weather.Result, error)
}

type weatherTool struct {
	fetcher WeatherFetcher
}

func (t *weatherTool) name() string {
	return WeatherFunctionName
}

func (t *weatherTool) definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        WeatherFunctionName,
			Description: openai.String("Get the current weather for a location"),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city e.g. 'Berlin, Germany' or 'Barcelona, Spain'",
					},
				},
				"required":             []string{"location"},
				"additionalProperties": false,
			},
		},
	}
}

func (t *weatherTool) execute(ctx context.Context, argText string) (string, error) {
	location, err := parseWeatherArguments(argText)
	if err != nil {
		return "", err
	}
	result, err := t.fetcher.Fetch(ctx, location)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", apperr.New(apperr.ErrUpstreamData, "encode weather result", err)
	}
	return string(payload), nil
}

// parseWeatherArguments decodes the model's argument payload as JSON data.
// Only the location key is accepted.
func parseWeatherArguments(argText string) (string, error) {
	const op = "parse " + WeatherFunctionName + " arguments"
	var args struct {
		Location *string `json:"location"`
	}
	dec := json.NewDecoder(strings.NewReader(argText))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return "", apperr.New(apperr.ErrArgumentParse, op, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", apperr.Newf(apperr.ErrArgumentParse, op, "unexpected data after arguments object")
	}
	if args.Location == nil {
		return "", apperr.Newf(apperr.ErrArgumentParse, op, "missing required key %q", "location")
	}
	location := strings.TrimSpace(*args.Location)
	if location == "" {
		return "", apperr.Newf(apperr.ErrArgumentParse, op, "location is empty")
	}
	return location, nil
}
