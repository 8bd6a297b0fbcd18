package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/skills"
)

func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "skills",
		Aliases: []string{"skill"},
		Short:   "Manage skills",
		Long: `Skills are reusable prompt snippets loaded from SKILL.md files.
They are discovered under ~/.kestrel/skills, the working directory's
.kestrel/skills, and any configured skills directory, and referenced
in a message as $name.`,
	}

	cmd.AddCommand(skillListCmd(), skillShowCmd())
	return cmd
}

func skillListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			home, _ := os.UserHomeDir()
			workDir := config.ResolveWorkDir("", env.settings)
			found, roots := skills.Discover(home, workDir, env.settings.SkillsDir)

			fmt.Print(newRenderer().Skills(found, roots))
			return nil
		},
	}
}

func skillShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a skill's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnv()
			if err != nil {
				return err
			}
			defer env.close()

			home, _ := os.UserHomeDir()
			workDir := config.ResolveWorkDir("", env.settings)
			found, _ := skills.Discover(home, workDir, env.settings.SkillsDir)

			for _, sk := range found {
				if sk.Name == args[0] {
					content, err := os.ReadFile(sk.Path)
					if err != nil {
						return err
					}
					fmt.Print(string(content))
					return nil
				}
			}
			return fmt.Errorf("skill not found: %s", args[0])
		},
	}
}
