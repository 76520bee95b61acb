package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"envpin/internal/report"
	"envpin/internal/testrun"
	"envpin/pkg/logging"
)

type testOptions struct {
	profile    string
	platform   string
	format     string
	suite      string
	output     string
	recordPath string
	reportPath string
	dir        string
	timeout    time.Duration
}

// completeFormatFlag provides shell completion for the format flag
func completeFormatFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{string(testrun.FormatNative), string(testrun.FormatGoTest)}, cobra.ShellCompDirectiveDefault
}

// completeOutputFlag provides shell completion for the output flag
func completeOutputFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"console", "verbose", "quiet", "json"}, cobra.ShellCompDirectiveDefault
}

func newTestCmd() *cobra.Command {
	opts := &testOptions{}
	cmd := &cobra.Command{
		Use:   "test [flags] -- <command> [args...]",
		Short: "Run a test command inside a profile and report its results",
		Long: `The test command runs a test suite inside a resolved profile, records
every test outcome as it is streamed, and converts the record into a JUnit
XML report.

The command must write one event per line to stdout, either in envpin's
native format:

  {"event":"start","test":"parses_header","time":"2024-03-01T12:00:00Z"}
  {"event":"pass","test":"parses_header","time":"2024-03-01T12:00:00.25Z"}
  {"event":"end"}

or as go test -json output (--format go-test-json).

If the stream stops before its end-of-stream signal, the run is interrupted,
or a line cannot be decoded, every test observed so far is kept and the
report is marked truncated. A truncated run fails the command even when every
observed test passed.

Example usage:
  envpin test --report junit.xml -- ./scripts/run-tests.sh
  envpin test --profile ci --format go-test-json --record run.jsonl --report junit.xml -- go test -json ./...
  envpin test --output quiet --timeout 30m -- cargo nextest run --message-format libtest-json

The command exits non-zero if any test failed, the record was truncated, or
the profile could not be resolved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "", "Profile to run under (default from config: ci)")
	cmd.Flags().StringVar(&opts.platform, "platform", "", "Platform to resolve for (default: host platform)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Event stream format: native or go-test-json (default from config)")
	cmd.Flags().StringVar(&opts.suite, "suite", "", "JUnit suite name (default: profile name)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Console output: console, verbose, quiet or json (default from config)")
	cmd.Flags().StringVar(&opts.recordPath, "record", "", "Persist the intermediate record as JSON lines to this file")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write the JUnit XML report to this file")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Working directory of the test command")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Stop the run after this long and report it as truncated (0 means no limit)")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormatFlag)
	_ = cmd.RegisterFlagCompletionFunc("output", completeOutputFlag)
	return cmd
}

func runTest(cmd *cobra.Command, opts *testOptions, args []string) error {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, stopping tests and keeping the partial record...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, opts.timeout)
		defer timeoutCancel()
	}

	profileName := firstNonEmpty(opts.profile, settings.Test.Profile)
	format, err := testrun.ParseFormat(firstNonEmpty(opts.format, settings.Test.Format))
	if err != nil {
		return err
	}
	reporter, err := testrun.NewReporter(firstNonEmpty(opts.output, settings.Test.Output), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	profile, err := resolveProfile(ctx, profileName, platformOrDefault(opts.platform))
	if err != nil {
		return err
	}

	runnerOpts := []testrun.Option{testrun.WithReporter(reporter)}
	if opts.recordPath != "" {
		sink, err := testrun.CreateRecordFile(opts.recordPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logging.Error("CLI", err, "failed to close record %s", opts.recordPath)
			}
		}()
		runnerOpts = append(runnerOpts, testrun.WithSink(sink))
	}

	runner := testrun.NewRunner(testrun.ExecLauncher{Stderr: cmd.ErrOrStderr()}, runnerOpts...)
	rec, runErr := runner.Run(ctx, profile, testrun.Invocation{
		Command: args,
		Dir:     opts.dir,
		Format:  format,
		Suite:   firstNonEmpty(opts.suite, settings.Test.Suite),
	})
	if rec == nil {
		return runErr
	}
	if runErr != nil {
		logging.Error("CLI", runErr, "record of run %s is incomplete on disk", rec.RunID)
	}

	rep, err := report.Convert(rec)
	if err != nil {
		return err
	}
	if opts.reportPath != "" {
		if err := report.WriteJUnitFile(opts.reportPath, rep); err != nil {
			return err
		}
		logging.Info("CLI", "JUnit report written to %s", opts.reportPath)
	}

	return testRunError(rec, runErr)
}

// testRunError decides the command's exit status from a finished record.
func testRunError(rec *testrun.Record, persistErr error) error {
	counts := rec.Counts()
	var errs []error
	if counts.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d tests failed in profile %s on %s", counts.Failed, counts.Total, rec.Profile, rec.Platform))
	}
	if rec.Truncated {
		errs = append(errs, fmt.Errorf("test record truncated after %d tests: %s", counts.Total, rec.TruncatedReason))
	}
	if persistErr != nil {
		errs = append(errs, persistErr)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if rec.ExitCode != 0 {
		return &exitCodeError{code: rec.ExitCode}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
