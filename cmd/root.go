package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"envpin/internal/color"
	"envpin/internal/config"
	"envpin/pkg/logging"
)

var (
	cfgFile      string
	debugLogging bool
	manifestFlag string
	indexFlag    string

	// settings is the layered configuration, loaded before any subcommand runs.
	settings = config.GetDefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envpin",
		Short: "Pin reproducible build environments and report CI test runs",
		Long: `envpin resolves a declarative manifest of toolchains and per-platform
dependencies into fully pinned, reproducible shell profiles, and runs test
suites inside those profiles, recording every outcome and converting the
record into a JUnit XML report.`,
		// SilenceUsage is set to true to prevent printing usage message on errors
		// handled by us (e.g. unresolvable toolchains, failed tests)
		SilenceUsage:      true,
		PersistentPreRunE: loadSettings,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSelfUpdateCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newProfilesCmd())
	cmd.AddCommand(newShellCmd())
	cmd.AddCommand(newExecCmd())
	cmd.AddCommand(newTestCmd())
	cmd.AddCommand(newConvertCmd())

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default layers ~/.config/envpin/config.yaml and ./.envpin/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&manifestFlag, "manifest", "f", "", "Manifest file (default: envpin.yaml, envpin.yml or envpin.hcl in the working directory)")
	cmd.PersistentFlags().StringVar(&indexFlag, "index", "", "Artifact index file (default from config)")
	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "envpin version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit with the child's status or 1
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

func loadSettings(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		settings, err = config.LoadConfigFile(cfgFile)
	} else {
		settings, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	level := logging.ParseLevel(settings.GlobalSettings.LogLevel)
	if debugLogging {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	color.InitializeFromEnv()
	return nil
}
