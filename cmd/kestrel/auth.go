package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfern/kestrel/internal/config"
)

func loginCmd() *cobra.Command {
	var apiBase string

	cmd := &cobra.Command{
		Use:   "login <api-key>",
		Short: "Store an API key for the chat backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.auth.SetAPIKey(args[0], apiBase); err != nil {
				return err
			}
			fmt.Println("Logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiBase, "api-base", "", "Override the API base URL")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.auth.Clear(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login state and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			workDir := config.ResolveWorkDir("", env.settings)
			sessions, err := env.agent.ListSessions(context.Background(), workDir)
			if err != nil {
				return err
			}

			fmt.Print(newRenderer().Status(
				env.auth.CheckStatus(),
				config.ResolveModel(env.settings),
				workDir,
				len(sessions),
			))
			return nil
		},
	}
}
