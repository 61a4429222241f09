// main.go
//
// chameleon: a code-breaking game server and deduction solver.
// Entry point; commands live in commands.go and cmd_*.go.

package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
