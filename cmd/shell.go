package cmd

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"envpin/internal/environment"
	"envpin/pkg/logging"
)

type shellOptions struct {
	platform string
	format   string
	copy     bool
}

func newShellCmd() *cobra.Command {
	opts := &shellOptions{}
	cmd := &cobra.Command{
		Use:   "shell <profile>",
		Short: "Print the environment of a profile",
		Long: `Prints the variables a profile sets, relative to the current environment.

Example usage:
  eval "$(envpin shell dev)"
  envpin shell ci --format dotenv > .env
  envpin shell dev --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := resolveProfile(cmd.Context(), args[0], platformOrDefault(opts.platform))
			if err != nil {
				return err
			}

			base := os.Environ()
			env := environment.Materialize(profile, base)

			var rendered string
			switch opts.format {
			case "sh", "":
				rendered = env.ShellScript(base)
			case "dotenv":
				rendered, err = env.Dotenv(base)
				if err != nil {
					return fmt.Errorf("failed to render dotenv: %w", err)
				}
				rendered += "\n"
			default:
				return fmt.Errorf("unknown format %q (want sh or dotenv)", opts.format)
			}

			if opts.copy {
				if err := clipboard.WriteAll(rendered); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				logging.Info("CLI", "environment of profile %s copied to clipboard", profile.Name)
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.platform, "platform", "", "Platform to resolve for (default: host platform)")
	cmd.Flags().StringVar(&opts.format, "format", "sh", "Output format: sh or dotenv")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the output to the clipboard instead of printing it")
	return cmd
}
