package main

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/appconfig"
)

var (
	noColor    bool
	verbose    bool
	pricingDB  string
	cfg        appconfig.Config
	logHandler *slog.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "llm-cost",
		Short:         "Offline cost governance for LLM prompts",
		Long:          "llm-cost tokenizes prompts with tiktoken-compatible BPE encoders, prices them against a signed catalogue, and enforces budget and model-allow-list policy — entirely offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logHandler = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			loaded, err := appconfig.Load(appconfig.DefaultPath())
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&pricingDB, "pricing-file", "", "explicit path to a pricing catalogue JSON file")

	cmd.AddCommand(newEstimateCmd())
	cmd.AddCommand(newPipeCmd())
	cmd.AddCommand(newPolicyCheckCmd())
	cmd.AddCommand(newPricingCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newFocusExportCmd())

	return cmd
}
