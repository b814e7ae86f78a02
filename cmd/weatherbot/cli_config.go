package main

import (
	"flag"
	"io"
	"strings"

	configpkg "github.com/minhyannv/weatherbot-go/pkg/config"
)

// parseCLIConfig layers defaults, the optional YAML file, the environment
// and explicitly set flags, in that order.
func parseCLIConfig(args []string, getenv func(string) string) (configpkg.Config, error) {
	defaults := configpkg.DefaultConfig()

	fs := flag.NewFlagSet("weatherbot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to a YAML config file (optional)")
	model := fs.String("model", defaults.Model, "Chat model name (overrides OPENAI_MODEL)")
	verbose := fs.Bool("verbose", defaults.Verbose, "Verbose request logging to stderr")
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}

	cfg := defaults
	if path := strings.TrimSpace(*configPath); path != "" {
		loaded, err := configpkg.LoadFile(cfg, path)
		if err != nil {
			return configpkg.Config{}, err
		}
		cfg = loaded
	}
	cfg = configpkg.ApplyEnv(cfg, getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model = *model
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	return configpkg.Normalize(cfg), nil
}
