package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minhyannv/weatherbot-go/pkg/agent"
	"github.com/minhyannv/weatherbot-go/pkg/apperr"
)

type fakeSession struct {
	replies []string
	err     error
	inputs  []string
	resets  int
}

func (f *fakeSession) Ask(_ context.Context, input string) (agent.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return agent.Message{}, f.err
	}
	reply := "ok"
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	return agent.Message{Role: agent.RoleAssistant, Content: reply}, nil
}

func (f *fakeSession) Reset() { f.resets++ }

func TestRunREPLQuitAnyCasing(t *testing.T) {
	for _, token := range []string{"quit", "QUIT", "Quit", "  qUiT  "} {
		t.Run(token, func(t *testing.T) {
			s := &fakeSession{}
			var out bytes.Buffer

			err := runREPL(context.Background(), s, replOptions{}, strings.NewReader(token+"\nweather in Berlin?\n"), &out)
			if err != nil {
				t.Fatalf("runREPL returned error: %v", err)
			}
			if len(s.inputs) != 0 {
				t.Fatalf("expected no turns after quit, got %v", s.inputs)
			}
			if !strings.Contains(out.String(), "Chat Bot: Goodbye!") {
				t.Fatalf("expected farewell, got: %q", out.String())
			}
		})
	}
}

func TestRunREPLPrintsReplies(t *testing.T) {
	s := &fakeSession{replies: []string{"It is 27.0°C in Berlin.", "Anytime!"}}
	var out bytes.Buffer

	err := runREPL(context.Background(), s, replOptions{}, strings.NewReader("weather in Berlin?\n\nthanks\nquit\n"), &out)
	if err != nil {
		t.Fatalf("runREPL returned error: %v", err)
	}
	if len(s.inputs) != 2 || s.inputs[0] != "weather in Berlin?" || s.inputs[1] != "thanks" {
		t.Fatalf("unexpected turns: %v", s.inputs)
	}
	text := out.String()
	if !strings.HasPrefix(text, "Chat Bot: Hello!") {
		t.Fatalf("expected greeting first, got: %q", text)
	}
	first := strings.Index(text, "Chat Bot: It is 27.0°C in Berlin.")
	second := strings.Index(text, "Chat Bot: Anytime!")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("replies missing or out of order: %q", text)
	}
	if !strings.Contains(text, "You: ") {
		t.Fatalf("expected input prompt, got: %q", text)
	}
}

func TestRunREPLStopsOnTurnError(t *testing.T) {
	s := &fakeSession{err: apperr.Newf(apperr.ErrConnectivity, "fetch weather", "connection refused")}
	var out bytes.Buffer

	err := runREPL(context.Background(), s, replOptions{}, strings.NewReader("weather in Berlin?\nweather in Paris?\n"), &out)
	if !errors.Is(err, apperr.ErrConnectivity) {
		t.Fatalf("expected ErrConnectivity, got: %v", err)
	}
	if len(s.inputs) != 1 {
		t.Fatalf("expected session to end after the failed turn, got %v", s.inputs)
	}
}

func TestRunREPLEndOfInput(t *testing.T) {
	s := &fakeSession{}
	if err := runREPL(context.Background(), s, replOptions{}, strings.NewReader("hello"), nil); err != nil {
		t.Fatalf("runREPL returned error: %v", err)
	}
	if len(s.inputs) != 1 {
		t.Fatalf("expected one turn, got %v", s.inputs)
	}
}

func TestRunREPLCommands(t *testing.T) {
	s := &fakeSession{}
	var out bytes.Buffer

	err := runREPL(context.Background(), s, replOptions{}, strings.NewReader("/help\n/clear\n/bogus\n/exit\nhello\n"), &out)
	if err != nil {
		t.Fatalf("runREPL returned error: %v", err)
	}
	if s.resets != 1 {
		t.Fatalf("expected one reset, got %d", s.resets)
	}
	if len(s.inputs) != 0 {
		t.Fatalf("expected no turns, got %v", s.inputs)
	}
	text := out.String()
	for _, want := range []string{"Commands:", "Conversation history cleared.", "Unknown command: /bogus", "Chat Bot: Goodbye!"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output: %q", want, text)
		}
	}
}

func TestRunREPLRequiresSession(t *testing.T) {
	if err := runREPL(context.Background(), nil, replOptions{}, strings.NewReader(""), nil); err == nil {
		t.Fatal("expected error without a session")
	}
}
