package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/wizardrun"
)

// version is overridden at release time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	settings, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("parse arguments: %v", err)
	}

	cfg, _, _, err := config.Load(settings.configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := wizardrun.Run(context.Background(), cfg, settings.options(version)); err != nil {
		log.Fatalf("run wizard: %v", err)
	}
}
