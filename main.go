package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"subnetd/cmd/placement"
	"subnetd/cmd/server"
	"subnetd/cmd/token"
	"subnetd/cmd/zoneset"
	"subnetd/internal/log"
)

var (
	version = "dev"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "subnetd",
		Version:     version,
		Usage:       "Zone-distributed subnet placement service",
		Description: "Manage zone sets and subnet placements, and publish their export lists for cross-boundary import",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"SUBNETD_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"SUBNETD_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logLevel := cmd.GetString("log-level")
			logFormat := cmd.GetString("log-format")
			log.Configure(logLevel, logFormat)
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:        "zoneset",
				Usage:       "Zone set management commands",
				Description: "Manage zone sets",
				Commands:    zoneset.Commands(),
			},
			{
				Name:        "placement",
				Usage:       "Placement management commands",
				Description: "Manage placements and their exports",
				Commands:    placement.Commands(),
			},
			token.Command(),
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
