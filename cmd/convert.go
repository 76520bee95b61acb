package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"envpin/internal/report"
	"envpin/internal/testrun"
	"envpin/pkg/logging"
)

func newConvertCmd() *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "convert <record.jsonl>",
		Short: "Convert a persisted test record into a JUnit XML report",
		Long: `Converts a record written by envpin test --record into JUnit XML.

Records left behind by a crashed or interrupted run are converted too: every
test that reached the file is reported and the report is marked truncated.
Without --report the XML is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := testrun.ReadRecordFile(args[0])
			if err != nil {
				return err
			}
			rep, err := report.Convert(rec)
			if err != nil {
				return fmt.Errorf("cannot convert %s: %w", args[0], err)
			}
			if rec.Truncated {
				logging.Warn("CLI", "record %s is truncated: %s", args[0], rec.TruncatedReason)
			}

			if reportPath == "" {
				return report.WriteJUnit(cmd.OutOrStdout(), rep)
			}
			if err := report.WriteJUnitFile(reportPath, rep); err != nil {
				return err
			}
			testrun.WriteSummary(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the JUnit XML report to this file (default: stdout)")
	return cmd
}
