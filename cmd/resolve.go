package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"envpin/internal/color"
	"envpin/internal/lockfile"
	"envpin/internal/resolve"
)

type resolveOptions struct {
	platforms []string
	lockPath  string
	check     bool
}

func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every profile of the manifest for its platforms",
		Long: `Resolves the manifest's toolchain and dependencies into pinned artifacts
for every declared platform (or the ones given with --platform) and prints
the composed profiles.

Platforms resolve independently: if some fail, the others are still printed
and the command exits non-zero naming the failed platforms.

Example usage:
  envpin resolve
  envpin resolve --platform linux-x64 --platform darwin-arm64
  envpin resolve --lock envpin.lock.yaml
  envpin resolve --lock envpin.lock.yaml --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.platforms, "platform", nil, "Platform to resolve (repeatable; default: all declared)")
	cmd.Flags().StringVar(&opts.lockPath, "lock", "", "Write the resolution to this lockfile")
	cmd.Flags().BoolVar(&opts.check, "check", false, "With --lock, fail if the lockfile differs from the fresh resolution instead of writing it")
	return cmd
}

func runResolve(cmd *cobra.Command, opts *resolveOptions) error {
	if opts.check && opts.lockPath == "" {
		return errors.New("--check requires --lock")
	}

	m, err := loadManifest()
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}

	platforms := make([]resolve.Platform, 0, len(opts.platforms))
	for _, p := range opts.platforms {
		platforms = append(platforms, resolve.Platform(p))
	}

	decl := m.Declaration()
	res, resolveErr := engine.Resolve(cmd.Context(), decl, platforms)

	out := cmd.OutOrStdout()
	if len(res.Profiles) > 0 {
		renderResolution(out, res)
	}

	var partial *resolve.PartialFailure
	if errors.As(resolveErr, &partial) {
		for _, p := range partial.FailedPlatforms() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.FailureStyle.Render("✗"), p, partial.Failed[p])
		}
		return fmt.Errorf("resolution failed for %d of %d platforms", len(partial.Failed), len(partial.Failed)+len(res.Profiles))
	}
	if resolveErr != nil {
		return resolveErr
	}

	if opts.lockPath == "" {
		return nil
	}
	lock := lockfile.FromResolution(decl, m.Path, res)
	if opts.check {
		existing, err := lockfile.Read(opts.lockPath)
		if err != nil {
			return err
		}
		same, err := lockfile.Equal(existing, lock)
		if err != nil {
			return err
		}
		if !same {
			return fmt.Errorf("%s is out of date; run envpin resolve --lock %s", opts.lockPath, opts.lockPath)
		}
		fmt.Fprintf(out, "%s %s is up to date\n", color.SuccessStyle.Render("✓"), opts.lockPath)
		return nil
	}
	if err := lock.Write(opts.lockPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Lockfile written to %s\n", opts.lockPath)
	return nil
}

func renderResolution(out io.Writer, res resolve.Resolution) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PLATFORM"),
		text.FgHiCyan.Sprint("PROFILE"),
		text.FgHiCyan.Sprint("INPUT"),
		text.FgHiCyan.Sprint("KIND"),
		text.FgHiCyan.Sprint("VERSION"),
		text.FgHiCyan.Sprint("ARTIFACT"),
	})

	for _, platform := range res.Platforms() {
		set := res.Profiles[platform]
		for _, name := range set.Names() {
			for _, item := range set[name].Inputs() {
				version, ref := "", ""
				if item.Artifact != nil {
					version, ref = item.Artifact.Version, item.Artifact.Ref
				}
				t.AppendRow(table.Row{platform, name, item.Name, item.Kind, version, ref})
			}
		}
		t.AppendSeparator()
	}
	t.Render()
}
