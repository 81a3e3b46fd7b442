package main

import (
	"github.com/spf13/cobra"

	"github.com/pep299/meeting-summarizer/internal/application"
	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/llm"
	"github.com/pep299/meeting-summarizer/internal/logging"
)

// cliDeps are the pieces commands reach outside the process for
type cliDeps struct {
	loadConfig       func() (*config.Config, error)
	newTextGenerator func(*config.Config) (llm.TextGenerator, error)
}

func defaultDeps() cliDeps {
	return cliDeps{
		loadConfig:       config.Load,
		newTextGenerator: application.NewTextGenerator,
	}
}

func newRootCommand(deps cliDeps) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "meeting-summarizer",
		Short:         "Summarize meeting transcripts into structured JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Options{Level: logLevel, Output: cmd.ErrOrStderr()})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSummarizeCommand(deps))
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}
