package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfern/kestrel/internal/config"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "sess"},
		Short:   "Manage chat sessions",
	}

	cmd.AddCommand(
		sessionListCmd(),
		sessionShowCmd(),
		sessionDeleteCmd(),
	)

	return cmd
}

func sessionListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions for the current working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			workDir := config.ResolveWorkDir("", env.settings)
			if all {
				workDir = ""
			}
			sessions, err := env.agent.ListSessions(context.Background(), workDir)
			if err != nil {
				return err
			}

			pinned := make(map[string]bool)
			for _, id := range env.settings.PinnedSessions {
				pinned[id] = true
			}

			fmt.Print(newRenderer().Sessions(sessions, pinned))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List sessions from every working directory")
	return cmd
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			msgs, err := env.agent.LoadSessionMessages(context.Background(), args[0])
			if err != nil {
				return err
			}

			fmt.Print(newRenderer().Transcript(msgs))
			return nil
		},
	}
}

func sessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <session-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a session and its messages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.agent.DeleteSession(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}
