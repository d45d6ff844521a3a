package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "daa-sim",
	Short: "DAA engine demo and regression harness",
	Long: `daa-sim drives the detect-and-avoid engine through YAML scenario
fixtures, printing coloured band/alert output, and can stream traffic
from an upstream entity-tracking feed into a running engine instance.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.daa-sim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME/.daa-sim")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func newLogger() daalog.Logger {
	return daalog.NewWithConfig(daalog.Config{
		Level:    daalog.ParseLevel(logLevel),
		NoColor:  noColor,
		ShowTime: true,
	})
}
