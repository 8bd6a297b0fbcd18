// Package main provides the kestrel CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mfern/kestrel/internal/approval"
	"github.com/mfern/kestrel/internal/logging"
	"github.com/mfern/kestrel/internal/tui"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "kestrel [path]",
		Short: "Kestrel - AI coding assistant for the terminal",
		Long: `Kestrel: an AI coding assistant that runs in your terminal.

Usage modes:
  kestrel           Start an interactive chat session (current directory)
  kestrel <path>    Start an interactive session in the given directory
  kestrel <command> Run a specific command (see below)

Use 'kestrel status' to check login state and configuration.`,
		Args:    cobra.MaximumNArgs(1),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			settings := env.settings
			if len(args) > 0 {
				path := args[0]
				if !filepath.IsAbs(path) {
					cwd, _ := os.Getwd()
					path = filepath.Join(cwd, path)
				}
				info, err := os.Stat(path)
				if err != nil || !info.IsDir() {
					return fmt.Errorf("not a directory: %s", args[0])
				}
				settings.WorkDir = path
			}

			// The TUI owns the terminal, so structured logs go to a file.
			if f, err := os.OpenFile(env.paths.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				logging.SetOutput(f)
				defer f.Close()
			}

			return tui.Run(tui.Options{
				Backend:      env.agent,
				Auth:         env.auth,
				Settings:     settings,
				SettingsPath: env.paths.SettingsFile,
				Policy:       approval.NewPolicy(env.paths.ApprovalsFile),
				Version:      version,
			})
		},
	}

	rootCmd.AddCommand(
		sessionsCmd(),
		skillsCmd(),
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kestrel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("kestrel", version)
		},
	}
}
