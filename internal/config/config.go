// Package config provides functionality for managing configuration options
// for the client using command-line flags, a .env file, and environment
// variables.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Options holds the configuration values for the client.
type Options struct {
	// BaseURL is the root URL of the TalkScribe API.
	BaseURL string `env:"TALKSCRIBE_API_URL"`

	// TokenFile is the path of the file holding the persisted token pair.
	TokenFile string `env:"TALKSCRIBE_TOKEN_FILE"`

	// Language is the default transcription language for uploads.
	Language string `env:"TALKSCRIBE_LANGUAGE"`

	// LogLevel sets the logger verbosity (debug, info, warn, error).
	LogLevel string `env:"TALKSCRIBE_LOG_LEVEL"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BaseURL, "url", "http://localhost:8000", "API base URL")
	flag.StringVar(&options.TokenFile, "tokens", "tokens.json", "path to the token file")
	flag.StringVar(&options.Language, "lang", "pt-BR", "default transcription language")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
}

// Parse parses command-line flags, loads a .env file when present, and lets
// environment variables override flag values. It returns a pointer to the
// Options struct containing the parsed configuration values.
func Parse() (*Options, error) {
	flag.Parse()

	// Missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if options.BaseURL == "" {
		return nil, fmt.Errorf("API base URL must not be empty")
	}
	if options.TokenFile == "" {
		return nil, fmt.Errorf("token file path must not be empty")
	}
	return options, nil
}
