// Package weather looks up current conditions from the OpenWeatherMap API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minhyannv/weatherbot-go/pkg/apperr"
	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
)

const kelvinOffset = 273.15

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes int64 = 1 << 20

// Result is the normalized current weather for one location.
type Result struct {
	Conditions  string  `json:"conditions"`
	Temperature float64 `json:"temperature"`
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     loggerpkg.Logger
	Verbose    bool
}

// Client calls the current-weather endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  loggerpkg.Logger
	verbose bool
}

// NewClient builds a Client. A nil HTTPClient means http.DefaultClient.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = loggerpkg.NopLogger{}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimSpace(opts.BaseURL),
		http:    httpClient,
		logger:  logger,
		verbose: opts.Verbose,
	}
}

// providerResponse mirrors the fields read from the provider payload.
// Pointers distinguish absent keys from zero values.
type providerResponse struct {
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
}

// Fetch issues one GET for location and converts the reading to Celsius.
func (c *Client) Fetch(ctx context.Context, location string) (Result, error) {
	const op = "fetch weather"
	if c.apiKey == "" {
		return Result{}, apperr.Newf(apperr.ErrConfiguration, op, "weather API key is not set")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := c.requestURL(location)
	if err != nil {
		return Result{}, apperr.New(apperr.ErrConfiguration, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, apperr.New(apperr.ErrConfiguration, op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, apperr.New(apperr.ErrConnectivity, op, redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, apperr.New(apperr.ErrConnectivity, op, fmt.Errorf("read response: %w", err))
	}
	loggerpkg.Debug(c.verbose, c.logger, "weather response", map[string]any{
		"location":   location,
		"status":     resp.StatusCode,
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, apperr.Newf(apperr.ErrUpstreamData, op, "unexpected status %d: %s", resp.StatusCode, snippet(body))
	}
	return parseResponse(body)
}

func (c *Client) requestURL(location string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse weather base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("weather base URL %q is not absolute", c.baseURL)
	}
	q := u.Query()
	q.Set("q", location)
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseResponse(body []byte) (Result, error) {
	const op = "decode weather"
	var payload providerResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, apperr.New(apperr.ErrUpstreamData, op, err)
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return Result{}, apperr.Newf(apperr.ErrUpstreamData, op, "missing main.temp")
	}
	if len(payload.Weather) == 0 {
		return Result{}, apperr.Newf(apperr.ErrUpstreamData, op, "missing weather list")
	}
	if payload.Weather[0].Description == nil {
		return Result{}, apperr.Newf(apperr.ErrUpstreamData, op, "missing weather[0].description")
	}
	return Result{
		Conditions:  *payload.Weather[0].Description,
		Temperature: CelsiusFromKelvin(*payload.Main.Temp),
	}, nil
}

// CelsiusFromKelvin converts and rounds to one decimal place.
func CelsiusFromKelvin(kelvin float64) float64 {
	return roundTenth(kelvin - kelvinOffset)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	redacted.URL = strings.ReplaceAll(redacted.URL, key, "REDACTED")
	return &redacted
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
