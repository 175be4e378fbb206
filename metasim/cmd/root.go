// Package cmd provides the command-line interface for metasim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logger = logrus.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metasim",
	Short: "metasim runs discrete-event simulations.",
	Long: `metasim runs discrete-event simulations built on the metasim ` +
		`kernel. It can run Markov-chain experiments described in YAML ` +
		`files, sweep them over seeds, sample random variables, and show ` +
		`the recorded results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		levelName, _ := cmd.Flags().GetString("log-level")
		if !cmd.Flags().Changed("log-level") {
			if v, ok := os.LookupEnv(envLogLevel); ok {
				levelName = v
			}
		}

		level, err := logrus.ParseLevel(levelName)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		logger.SetLevel(level)

		return nil
	},
}

func init() {
	logger.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().String("env-file", ".env",
		"File with METASIM_* defaults. A missing file is ignored.")
	rootCmd.PersistentFlags().String("log-level", "info",
		"Logging level (trace, debug, info, warn, error).")
}

// loadEnvFile loads the defaults of the METASIM_* variables. Variables that
// are already set are not overwritten.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrapf(err, "load %s", path)
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
