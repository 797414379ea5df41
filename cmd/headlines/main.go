package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"

	"headlines/internal/app"
	"headlines/internal/config"
)

const defaultConfigPath = "config.json"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to JSON or YAML config file")
	envFile := flag.String("env", ".env", "path to dotenv file with secrets")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && *configPath == defaultConfigPath:
		cfg = config.New()
	case err != nil:
		log.Fatalf("FATAL: could not load config: %v", err)
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		log.Fatalf("FATAL: could not load environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid config: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: could not start application: %v", err)
	}
	if err := application.Run(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
