// Command rfwgo is the CLI entry point: chat with history, an HTTP
// server mode, and one-shot Telegram/Slack notifications.
package main

import (
	"fmt"
	"os"

	"github.com/rodrigogml/rfwgo/cmd/rfwgo/commands"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
