// Package commands provides the agrichat CLI.
package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"agrichat/internal/chatui"
	"agrichat/internal/client"
	"agrichat/internal/config"
	"agrichat/internal/logging"
	"agrichat/internal/tui"
)

type options struct {
	backend  string
	language string
	title    string
	timeout  time.Duration
	logFile  string
	logLevel string
}

// Version is set at build time.
var Version = "dev"

func newRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	opts := &options{
		backend:  cfg.BackendURL,
		language: cfg.Language,
		title:    cfg.Title,
		timeout:  cfg.Timeout,
		logFile:  cfg.LogFile,
		logLevel: "info",
	}

	cmd := &cobra.Command{
		Use:   "agrichat",
		Short: "Terminal chat with the AgriChat farming advisor",
		Long: `agrichat opens a full-screen chat with an AgriChat backend. Pick a
language, name the chat, then ask farming questions.

Examples:
  agrichat                                    Open the chat
  agrichat --backend http://10.0.0.5:8000     Use another backend
  agrichat ask "When should I sow wheat?" -l en
  agrichat history 5f0c...                    Print a session's messages
  agrichat languages                          List supported languages`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so logs go only to the file there.
			closer, err := logging.Init(logging.Options{
				Level: opts.logLevel,
				File:  opts.logFile,
				Quiet: cmd.Name() == "agrichat" || opts.logFile != "",
			})
			if err != nil {
				return err
			}
			cobra.OnFinalize(func() { closer.Close() })
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			state := chatui.New(c, chatui.Options{Language: opts.language, Title: opts.title})
			log.Info().Str("backend", c.BaseURL()).Msg("starting chat client")
			return tui.Run(state, c.TestURL())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.backend, "backend", "b", opts.backend, "Backend base URL (AGRICHAT_BACKEND_URL)")
	cmd.PersistentFlags().StringVarP(&opts.language, "language", "l", opts.language, "Language code (AGRICHAT_LANGUAGE)")
	cmd.PersistentFlags().StringVarP(&opts.title, "title", "t", opts.title, "Chat title (AGRICHAT_TITLE)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Request timeout (AGRICHAT_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", opts.logFile, "Write logs to this file (AGRICHAT_LOG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level")

	cmd.AddCommand(newLanguagesCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	return cmd
}

func (o *options) client() *client.Client {
	return client.New(&config.ClientConfig{
		BackendURL: strings.TrimRight(o.backend, "/"),
		Timeout:    o.timeout,
	})
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
