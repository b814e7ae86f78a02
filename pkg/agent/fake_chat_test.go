package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	configpkg "github.com/minhyannv/weatherbot-go/pkg/config"
	"github.com/minhyannv/weatherbot-go/pkg/weather"
)

// fakeChat serves scripted chat completion responses and records requests.
type fakeChat struct {
	t         *testing.T
	mu        sync.Mutex
	responses []fakeResponse
	requests  []map[string]any
	srv       *httptest.Server
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeChat(t *testing.T, responses ...fakeResponse) *fakeChat {
	t.Helper()
	f := &fakeChat{t: t, responses: responses}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeChat) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("read request body: %v", err)
	}
	var req map[string]any
	if err := json.Unmarshal(raw, &req); err != nil {
		f.t.Errorf("decode request body: %v", err)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	f.mu.Unlock()

	if idx >= len(f.responses) {
		f.t.Errorf("unexpected chat request #%d", idx+1)
		http.Error(w, `{"error":{"message":"no scripted response"}}`, http.StatusInternalServerError)
		return
	}
	resp := f.responses[idx]
	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeChat) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeChat) request(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func textReply(content string) fakeResponse {
	return fakeResponse{body: fmt.Sprintf(
		`{"id":"chatcmpl-test","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q}}]}`,
		content,
	)}
}

func functionCallReply(name, arguments string) fakeResponse {
	return fakeResponse{body: fmt.Sprintf(
		`{"id":"chatcmpl-test","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":%q,"arguments":%q}}]}}]}`,
		name, arguments,
	)}
}

// fakeWeather records lookups and returns a fixed result or error.
type fakeWeather struct {
	result    weather.Result
	err       error
	locations []string
}

func (f *fakeWeather) Fetch(_ context.Context, location string) (weather.Result, error) {
	f.locations = append(f.locations, location)
	if f.err != nil {
		return weather.Result{}, f.err
	}
	return f.result, nil
}

func newTestAssistant(t *testing.T, chat *fakeChat, fetcher WeatherFetcher) *Assistant {
	t.Helper()
	cfg := configpkg.DefaultConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIBaseURL = chat.srv.URL + "/v1/"
	a, err := New(cfg, WithWeatherFetcher(fetcher), WithSessionID("test-session"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return a
}

// requestRoles lists the role of every message in a recorded request.
func requestRoles(t *testing.T, req map[string]any) []string {
	t.Helper()
	msgs, ok := req["messages"].([]any)
	if !ok {
		t.Fatalf("request has no messages array: %v", req)
	}
	roles := make([]string, 0, len(msgs))
	for _, m := range msgs {
		obj, _ := m.(map[string]any)
		role, _ := obj["role"].(string)
		roles = append(roles, role)
	}
	return roles
}
