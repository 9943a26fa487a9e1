package main

import (
	"context"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jihyuk/escapemap-cli/internal/cli"
	"github.com/jihyuk/escapemap-cli/internal/config"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
	locationgateway "github.com/jihyuk/escapemap-cli/internal/gateway/location"
)

var version = "dev"

type runtimeConfig struct {
	APIBaseURL        string `env:"ESCAPEMAP_API_URL"`
	GeocodeURL        string `env:"ESCAPEMAP_GEOCODE_URL"`
	HTTPMinIntervalMS int    `env:"ESCAPEMAP_HTTP_MIN_INTERVAL_MS" envDefault:"220"`
}

func main() {
	// A .env in the working directory is a convenience, not a requirement.
	_ = godotenv.Load()

	var cfg runtimeConfig
	if err := env.Parse(&cfg); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	user, err := store.LoadUser(context.Background())
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	deps := cli.Dependencies{
		Escape: escapegateway.NewClient(
			escapegateway.WithBaseURL(cfg.APIBaseURL),
			escapegateway.WithAuthToken(user.AuthToken),
			escapegateway.WithRequestMinInterval(resolveRequestMinInterval(cfg)),
		),
		Location: locationgateway.NewClient(
			locationgateway.WithBaseURL(cfg.GeocodeURL),
		),
		State:   store,
		Version: version,
	}

	exitCode := cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

func resolveRequestMinInterval(cfg runtimeConfig) time.Duration {
	if cfg.HTTPMinIntervalMS < 0 {
		return 220 * time.Millisecond
	}
	return time.Duration(cfg.HTTPMinIntervalMS) * time.Millisecond
}
