package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"envpin/internal/color"
)

func newProfilesCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles available on a platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			engine, err := newEngine()
			if err != nil {
				return err
			}

			p := platformOrDefault(platform)
			result, err := engine.Compose(cmd.Context(), m.Declaration(), p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.HeaderStyle.Render(fmt.Sprintf("Profiles for %s", p)))
			for _, name := range result.Profiles.Names() {
				profile := result.Profiles[name]
				inputs := make([]string, 0, len(profile.Inputs()))
				for _, item := range profile.Inputs() {
					inputs = append(inputs, item.String())
				}
				line := fmt.Sprintf("  %s", name)
				if profile.Description != "" {
					line += " " + color.MutedStyle.Render("- "+profile.Description)
				}
				fmt.Fprintln(out, line)
				fmt.Fprintf(out, "      %s\n", strings.Join(inputs, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform to compose (default: host platform)")
	return cmd
}
