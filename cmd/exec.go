package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"envpin/internal/environment"
	"envpin/internal/testrun"
)

// exitCodeError carries a child's exit status through cobra.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.code)
}

func newExecCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "exec <profile> -- <command> [args...]",
		Short: "Run a command inside a profile's environment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := resolveProfile(cmd.Context(), args[0], platformOrDefault(platform))
			if err != nil {
				return err
			}

			env := environment.Materialize(profile, os.Environ())
			pathList, _ := env.Get("PATH")
			program, err := testrun.LookPath(args[1], pathList)
			if err != nil {
				return err
			}

			child := exec.CommandContext(cmd.Context(), program, args[2:]...)
			child.Env = env.Environ()
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = cmd.ErrOrStderr()

			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return &exitCodeError{code: exitErr.ExitCode()}
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform to resolve for (default: host platform)")
	return cmd
}
