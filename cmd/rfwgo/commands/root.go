// Package commands implements the rfwgo CLI commands using cobra.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodrigogml/rfwgo/internal/config"
	"github.com/rodrigogml/rfwgo/internal/openai"
)

// NewRootCmd builds the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rfwgo",
		Short: "OpenAI chat client with bounded conversation memory",
		Long: `rfwgo talks to the OpenAI Chat Completions API while keeping a
consistent multi-turn conversation: complete user/assistant pairs, an
optional system directive, and a token-budget cap on history growth.
It also ships one-shot Telegram and Slack notifiers.

Examples:
  rfwgo chat
  rfwgo chat --system "Be concise." --max-tokens 3000
  rfwgo serve --port 8080
  rfwgo notify slack --channel C123 "deploy finished"
  rfwgo models`,
		Version: version,
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newServeCmd(),
		newNotifyCmd(),
		newModelsCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")

	return rootCmd
}

// loadConfig resolves configuration from the --config flag plus env.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(file)
}

// newClient builds the chat client from config plus per-command flags.
func newClient(cfg *config.Config, model string, maxTokens int) (*openai.Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	var opts []openai.Option
	if model == "" {
		model = cfg.OpenAIModel
	}
	if model != "" {
		opts = append(opts, openai.WithModel(openai.Model(model)))
	}
	if cfg.CharsPerToken > 0 {
		opts = append(opts, openai.WithCharsPerToken(cfg.CharsPerToken))
	}

	client := openai.NewClient(cfg.OpenAIAPIKey, opts...)

	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}
	if maxTokens > 0 {
		client.EnableTokenLimit(maxTokens)
	}
	return client, nil
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known chat model identifiers",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, m := range openai.Models() {
				marker := " "
				if m == openai.DefaultModel {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m)
			}
		},
	}
}
