package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rodrigogml/rfwgo/internal/openai"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the model, keeping conversation history",
		Long: `Send one message, or start an interactive session when no
argument is given. History is kept for the life of the process; set
--max-tokens to cap how much of it is resent each turn.

Examples:
  rfwgo chat "Summarize RFC 9110 in one paragraph"
  rfwgo chat --system "Be concise." --max-tokens 3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringP("model", "m", "", "chat model (see `rfwgo models`)")
	cmd.Flags().String("system", "", "system instructions for the conversation")
	cmd.Flags().Int("max-tokens", 0, "estimated token budget for resent history (0 = unlimited)")
	cmd.Flags().Bool("stateless", false, "send a single prompt without touching history")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	system, _ := cmd.Flags().GetString("system")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	stateless, _ := cmd.Flags().GetBool("stateless")

	client, err := newClient(cfg, model, maxTokens)
	if err != nil {
		return err
	}
	if system != "" {
		client.SetSystemInstructions(system)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		var reply string
		if stateless {
			reply, err = client.SendPrompt(ctx, args[0])
		} else {
			reply, err = client.SendUserMessage(ctx, args[0])
		}
		if err != nil {
			return describeChatError(err)
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	// Interactive mode: one exchange per line until EOF or /quit.
	fmt.Fprintln(out, "rfwgo chat — /quit to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		reply, err := client.SendUserMessage(ctx, line)
		if err != nil {
			// History rolled back; the conversation can continue.
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", describeChatError(err))
			continue
		}
		fmt.Fprintln(out, reply)
	}
	return scanner.Err()
}

// describeChatError keeps CLI output short for the common failures.
func describeChatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("OpenAI refused the request (%s): %s", apiErr.Code, apiErr.Message)
	}
	return err
}
