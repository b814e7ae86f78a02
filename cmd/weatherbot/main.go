// Package main runs the interactive weather assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/minhyannv/weatherbot-go/pkg/agent"
	configpkg "github.com/minhyannv/weatherbot-go/pkg/config"
	loggerpkg "github.com/minhyannv/weatherbot-go/pkg/logger"
)

// main is the program entry point.
func main() {
	// Values in .env take precedence over the inherited environment.
	_ = godotenv.Overload()

	config, err := parseCLIConfig(os.Args[1:], os.Getenv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := configpkg.Validate(config); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	appLogger := loggerpkg.NewWriterLogger(os.Stderr)
	app, err := agent.New(config, agent.WithLogger(appLogger))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runREPL(ctx, app, replOptions{
		Verbose: config.Verbose,
		Logger:  loggerpkg.With(appLogger, "session", app.SessionID()),
	}, os.Stdin, os.Stdout); err != nil {
		stop()
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
