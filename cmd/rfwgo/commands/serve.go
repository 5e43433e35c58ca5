package commands

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodrigogml/rfwgo/internal/openai"
	"github.com/rodrigogml/rfwgo/internal/server"
	"github.com/rodrigogml/rfwgo/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat client over HTTP",
		Long: `Start an HTTP server exposing one conversation: POST /v1/chat,
POST /v1/prompt, PUT /v1/system, GET /v1/history, plus the transcript
archive under /v1/transcripts.

Examples:
  rfwgo serve
  rfwgo serve --port 9090 --max-tokens 3000`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "listen port (default from config, else 8080)")
	cmd.Flags().StringP("model", "m", "", "chat model (see `rfwgo models`)")
	cmd.Flags().Int("max-tokens", 0, "estimated token budget for resent history (0 = unlimited)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetString("port")
	model, _ := cmd.Flags().GetString("model")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	if port == "" {
		port = cfg.Port
	}

	db, err := store.NewBoltStore(cfg.DataDir + "/rfwgo.db")
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := newClient(cfg, model, maxTokens)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if model == "" {
		model = cfg.OpenAIModel
	}
	if model == "" {
		model = string(openai.DefaultModel)
	}
	srv := server.New(client, db, model, logger)

	httpSrv := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("rfwgo: listening on :%s", port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("rfwgo: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("rfwgo: stopped")
	return nil
}
