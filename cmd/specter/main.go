// Package main provides the Specter CLI entry point.
// Specter is a terminal desktop assistant that routes plain-language commands
// to capability modules and falls back to conversation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"specter/internal/config"
	"specter/internal/logger"
	"specter/internal/output"
	"specter/internal/shell"
	"specter/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
	flagJSON     = "json"
	flagDetailed = "detailed"
)

func main() {
	if err := newRootCmd(viper.New()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree with flags bound into v.
func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "specter",
		Short: "Specter - a terminal desktop assistant",
		Long: `Specter understands plain-language commands for music, files, email, calendar,
news, weather, apps and system monitoring, and chats when nothing else fits.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Configure(v.GetString(flagLogLevel), v.GetString(flagLogFile), v.GetBool(config.FlagTestMode)); err != nil {
				return fmt.Errorf("error configuring logger: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagLogLevel, "", "Set log level (debug|info|warn|error) [default: warn]")
	flags.String(flagLogFile, "", "Write logs to file instead of stderr")
	flags.Bool(config.FlagTestMode, false, "Run in deterministic test mode")
	flags.String(config.FlagDataDir, "", "Directory for history, calendar and draft files")
	flags.String(config.FlagProvider, "", "Text-generation provider (openai|anthropic|gemini|groq)")
	flags.Bool(config.FlagNoClassifier, false, "Route with keyword rules only")
	flags.Bool(config.FlagSpeak, false, "Read every response aloud")
	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding flags: %v\n", err)
		os.Exit(1)
	}

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive assistant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, v)
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask <command>",
		Short: "Run one command and print the response",
		Long:  `Route a single command exactly as the interactive shell would, then exit.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, v, strings.Join(args, " "))
		},
	}
	askCmd.Flags().Bool(flagJSON, false, "Print the response as JSON")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			detailed, _ := cmd.Flags().GetBool(flagDetailed)
			if detailed {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
			return nil
		},
	}
	versionCmd.Flags().Bool(flagDetailed, false, "Include build and platform details")

	rootCmd.AddCommand(shellCmd, askCmd, versionCmd)
	return rootCmd
}

func buildAssistant(v *viper.Viper) (*shell.Assistant, error) {
	cfg, err := config.Load(v, config.LoadOptions{})
	if err != nil {
		return nil, err
	}
	if len(cfg.Sources) > 0 {
		logger.Debug("Loaded configuration", "sources", cfg.Sources)
	}
	return shell.Build(cfg, shell.BuildOptions{})
}

func runShell(cmd *cobra.Command, v *viper.Viper) error {
	logger.Info("Starting Specter", "version", version.GetVersion())

	a, err := buildAssistant(v)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	opts := shell.SessionOptions{}
	if a.Config.Speech.SpeakReplies && a.Speech != nil {
		opts.Speaker = a.Speech
	}

	printer := consolePrinter(cmd, a.Config.TestMode)
	shell.Run(cmd.Context(), shell.NewSession(a, opts), printer)
	return nil
}

func runAsk(cmd *cobra.Command, v *viper.Viper, command string) error {
	a, err := buildAssistant(v)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	printer := consolePrinter(cmd, a.Config.TestMode)
	if asJSON, _ := cmd.Flags().GetBool(flagJSON); asJSON {
		printer = output.NewPrinter(output.WithWriter(cmd.OutOrStdout()), output.JSON())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session := shell.NewSession(a, shell.SessionOptions{})
	shell.ProcessInput(ctx, session, printer, command)
	return nil
}

func consolePrinter(cmd *cobra.Command, testMode bool) *output.Printer {
	if testMode {
		return output.NewPrinter(output.WithWriter(cmd.OutOrStdout()), output.TestMode())
	}
	return output.NewConsolePrinter(output.WithWriter(cmd.OutOrStdout()))
}
