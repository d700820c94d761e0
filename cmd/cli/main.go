package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conformalab/samplequal/cmd/cli/commands"
	"github.com/conformalab/samplequal/pkg/constants"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "samplequal",
		Short: "Conformational sampling quality CLI",
		Long: `A command-line interface for quantifying how well simulated molecular
trajectories sample conformational space relative to a reference ensemble,
using per-residue backbone dihedral distributions.`,
		Version: "0.1.0",
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.samplequal.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", constants.DefaultLogFormat, "log format (text, json)")

	// Initialize Viper
	cobra.OnInitialize(initConfig)

	// Add commands
	rootCmd.AddCommand(commands.NewCompareCmd())
	rootCmd.AddCommand(commands.NewPathsCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".samplequal")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SAMPLEQUAL")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Commands log through the standard logger
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
