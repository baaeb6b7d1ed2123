package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomelib/tome/internal"
	"github.com/tomelib/tome/pkg/logger"
)

var log = logger.Get("Main")

// main is the entry point to the program. It loads the user provided
// configuration, constructs the Tome services and runs them until the
// process receives an interrupt.
func main() {
	configPath := flag.String("config", "~/.config/tome/config.yaml", "path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	backfillSummaries := flag.Bool("backfill-summaries", false, "generate missing audiobook summaries and exit")
	flag.Parse()

	if *verbose {
		logger.SetMinLoggingLevel(logger.VERBOSE.Level())
	} else {
		logger.SetMinLoggingLevel(logger.INFO.Level())
	}

	config := internal.TomeConfig{}
	if err := config.LoadFromFile(*configPath); err != nil {
		log.Emit(logger.WARNING, "Failed to load config file (%s), falling back to environment: %s\n", *configPath, err.Error())
		if err := config.LoadFromEnv(); err != nil {
			log.Emit(logger.FATAL, "Failed to load configuration: %s\n", err.Error())
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tome := internal.New(config)
	if *backfillSummaries {
		if err := tome.RunSummaryBackfill(ctx); err != nil {
			log.Emit(logger.FATAL, "Summary backfill failed: %s\n", err.Error())
			os.Exit(1)
		}
		return
	}

	if err := tome.Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Tome stopped due to error: %s\n", err.Error())
		os.Exit(1)
	}

	log.Emit(logger.STOP, "Tome shutdown complete\n")
}
