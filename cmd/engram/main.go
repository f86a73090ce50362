package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"engram/internal/app"
	"engram/internal/config"
	"engram/internal/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Knowledge-capture bot: link in, summarized note out",
	Long: `Engram is a Telegram bot that captures links (videos or articles),
summarizes them through an LLM, answers follow-up questions, and saves
the result as a Markdown note in your vault.`,
	RunE: runBot,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot (default)",
	RunE:  runBot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("engram", version)
	},
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting engram bot", "version", version, "vault", cfg.Vault.Path)

	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func main() {
	rootCmd.AddCommand(botCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
