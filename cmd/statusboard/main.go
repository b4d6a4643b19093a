// Package main provides the statusboard binary: the API server with its
// monitor refresh loop, plus operator subcommands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "statusboard"

const usage = `usage: statusboard [command] [flags]

commands:
  serve     run the API server and monitor refresh loop (default)
  token     mint an admin access token
  trigger   publish a monitor refresh job to Pub/Sub
`

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	ctx := context.Background()

	var err error
	switch command {
	case "serve":
		err = serve(ctx, log)
	case "token":
		err = mintToken(args, os.Stdout)
	case "trigger":
		err = publishTrigger(ctx, args, log)
	case "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
		os.Exit(1)
	}
}
