package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/weatherbot-go/pkg/agent"
	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
)

const (
	botPrefix  = "Chat Bot: "
	userPrompt = "You: "
	quitToken  = "quit"
)

// session is the part of agent.Assistant the REPL drives.
type session interface {
	Ask(ctx context.Context, input string) (agent.Message, error)
	Reset()
}

// replOptions configures REPL behavior.
type replOptions struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

// runREPL reads one line per turn until quit or end of input. A failed turn
// ends the session and its error is returned.
func runREPL(ctx context.Context, s session, opts replOptions, in io.Reader, out io.Writer) error {
	if s == nil {
		return fmt.Errorf("assistant is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}

	loggerpkg.Debug(opts.Verbose, opts.Logger, "repl start", nil)

	scanner := bufio.NewScanner(in)
	printWelcome(out)

	for {
		_, _ = fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, quitToken) {
			printGoodbye(out)
			return nil
		}
		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(input, s, out); quit {
				return nil
			}
			continue
		}

		reply, err := s.Ask(ctx, input)
		if err != nil {
			return fmt.Errorf("chat turn: %w", err)
		}
		_, _ = fmt.Fprintf(out, "%s%s\n", botPrefix, reply.Content)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func printWelcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, botPrefix+"Hello! Ask me about the weather by typing the city name or something like (What's the weather like in Berlin). (Type 'quit' anytime to exit)")
}

func printGoodbye(out io.Writer) {
	_, _ = fmt.Fprintln(out, botPrefix+"Goodbye!")
}

// handleCommand processes slash commands. It reports whether the session
// should end.
func handleCommand(input string, s session, out io.Writer) bool {
	switch strings.ToLower(input) {
	case "/help", "/h":
		printHelp(out)
	case "/clear", "/c":
		s.Reset()
		_, _ = fmt.Fprintln(out, "Conversation history cleared.")
	case "/quit", "/exit", "/q":
		printGoodbye(out)
		return true
	default:
		_, _ = fmt.Fprintf(out, "Unknown command: %s. Type /help for available commands.\n", input)
	}
	return false
}

func printHelp(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  quit   - Exit the program")
	_, _ = fmt.Fprintln(out, "  /help  - Show this help message")
	_, _ = fmt.Fprintln(out, "  /clear - Clear conversation history")
	_, _ = fmt.Fprintln(out, "  /exit  - Exit the program")
}
