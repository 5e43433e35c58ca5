package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rodrigogml/rfwgo/internal/notifier"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send one-shot notifications to Telegram or Slack",
	}
	cmd.AddCommand(newNotifyTelegramCmd(), newNotifySlackCmd())
	return cmd
}

func newNotifyTelegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram <text>",
		Short: "Send a Telegram message, optionally with a file",
		Long: `Send a text message through the Telegram Bot API, or upload a
file when --file is given.

Examples:
  rfwgo notify telegram "backup finished"
  rfwgo notify telegram "nightly report" --file report.pdf
  rfwgo notify telegram "dashboard" --file chart.png --as photo`,
		Args: cobra.ExactArgs(1),
		RunE: runNotifyTelegram,
	}

	cmd.Flags().String("chat", "", "chat or group ID (default from config)")
	cmd.Flags().String("file", "", "path of a file to upload")
	cmd.Flags().String("as", "document", "upload kind: document, photo, audio or video")
	return cmd
}

func runNotifyTelegram(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}

	chatID, _ := cmd.Flags().GetString("chat")
	if chatID == "" {
		chatID = cfg.TelegramChatID
	}
	if chatID == "" {
		return errors.New("no chat ID: pass --chat or set TELEGRAM_CHAT_ID")
	}

	tg := notifier.NewTelegram(cfg.TelegramBotToken)
	ctx := cmd.Context()

	if err := tg.SendMessage(ctx, chatID, args[0]); err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(file)
	kind, _ := cmd.Flags().GetString("as")
	switch kind {
	case "document":
		return tg.SendDocument(ctx, chatID, f, name)
	case "photo":
		return tg.SendPhoto(ctx, chatID, f, name)
	case "audio":
		return tg.SendAudio(ctx, chatID, f, name)
	case "video":
		return tg.SendVideo(ctx, chatID, f, name)
	default:
		return fmt.Errorf("unknown upload kind %q", kind)
	}
}

func newNotifySlackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slack <text>",
		Short: "Send a Slack message to a channel or user",
		Long: `Post a message through the Slack Web API. With --user a direct
message conversation is opened first.

Examples:
  rfwgo notify slack "deploy finished" --channel C0123456
  rfwgo notify slack "your job is done" --user U0123456
  rfwgo notify slack "ping"   # uses SLACK_DEFAULT_CHANNEL`,
		Args: cobra.ExactArgs(1),
		RunE: runNotifySlack,
	}

	cmd.Flags().String("channel", "", "channel or conversation ID")
	cmd.Flags().String("user", "", "user ID to DM")
	return cmd
}

func runNotifySlack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.SlackBotToken == "" {
		return errors.New("SLACK_BOT_TOKEN is not set")
	}

	channel, _ := cmd.Flags().GetString("channel")
	user, _ := cmd.Flags().GetString("user")
	if channel != "" && user != "" {
		return errors.New("--channel and --user are mutually exclusive")
	}

	s := notifier.NewSlack(cfg.SlackBotToken, cfg.SlackDefaultChannel)
	ctx := cmd.Context()

	switch {
	case user != "":
		return s.SendToUser(ctx, user, args[0])
	case channel != "":
		return s.SendToChannel(ctx, channel, args[0])
	default:
		return s.SendToDefaultChannel(ctx, args[0])
	}
}
