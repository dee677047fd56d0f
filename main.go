package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/cmd"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
)

var sha string

func main() {
	cfg := config.NewConfigWithOptionsAndDefaults(
		config.WithLogFormat("console"),
		config.WithLogLevel("info"),
	)

	fmt.Printf("Built from git commit: %s\n", sha)

	var rootCmd = &cobra.Command{
		Use:   "takeout-ng",
		Short: "Organize a Google Photos Takeout export into a clean, dated library",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
		},
	}
	registerLoggingFlags(rootCmd, cfg)

	rootCmd.AddCommand(cmd.NewProcessCommand(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerLoggingFlags(cmd *cobra.Command, config *config.Config) {
	cmd.PersistentFlags().StringVar(&config.LogFormat, "log-format", config.LogFormat, "format of the logs: console or json")
	cmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
}
