package agent

import (
	"net/http"

	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
)

// Option configures optional runtime dependencies for Assistant.
type Option func(*assistantDeps)

type assistantDeps struct {
	logger     loggerpkg.Logger
	httpClient *http.Client
	weather    WeatherFetcher
	sessionID  string
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *assistantDeps) {
		d.logger = l
	}
}

// WithHTTPClient sets the HTTP client shared by the chat and weather clients.
func WithHTTPClient(c *http.Client) Option {
	return func(d *assistantDeps) {
		d.httpClient = c
	}
}

// WithWeatherFetcher replaces the OpenWeatherMap client.
func WithWeatherFetcher(f WeatherFetcher) Option {
	return func(d *assistantDeps) {
		d.weather = f
	}
}

// WithSessionID overrides the generated session id used in logs.
func WithSessionID(id string) Option {
	return func(d *assistantDeps) {
		d.sessionID = id
	}
}
