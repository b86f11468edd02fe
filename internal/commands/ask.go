package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"agrichat/internal/chatui"
	"agrichat/internal/i18n"
)

func newLanguagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages the backend supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := chatui.New(opts.client(), chatui.Options{})
			for _, code := range state.LoadLanguages(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
}

func newAskCmd(opts *options) *cobra.Command {
	var (
		sessionID string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `ask starts a new chat (or continues --session) and prints the answer.
The session id is printed to stderr so the chat can be continued later.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			text := i18n.For(opts.language)
			state := chatui.New(opts.client(), chatui.Options{Language: opts.language, Title: opts.title})

			if sessionID == "" {
				if err := state.StartSession(cmd.Context()); err != nil {
					return errors.Wrap(err, text.StartError)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "session:", state.Snapshot().SessionID)
			} else {
				// Continue an existing chat without creating a new one.
				if err := state.Resume(sessionID); err != nil {
					return err
				}
			}

			state.SetInput(question)
			if err := state.Send(cmd.Context()); err != nil {
				return errors.Wrap(err, text.SendError)
			}

			msgs := state.Snapshot().Messages
			if len(msgs) == 0 {
				return errors.New("question was empty")
			}
			answer := msgs[len(msgs)-1].Content
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}
			return printMarkdown(cmd, answer)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Continue this session instead of starting one")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer without markdown rendering")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session_id>",
		Short: "Print the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := opts.client().History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func printMarkdown(cmd *cobra.Command, md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(80))
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
