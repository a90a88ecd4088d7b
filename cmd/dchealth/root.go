package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dchealth",
	Short: "Point-in-time health auditor for domain controllers",
	Long: "dchealth audits a single domain controller: reachability, disk space, " +
		"services, diagnostics, replication and functional levels. It renders a " +
		"fixed-width report, flags failing fields, and mails the report out. No " +
		"database, no UI — just YAML config and an exit code.",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("DCHEALTH")
	viper.AutomaticEnv()
}

// cfgFile resolves the config path from the flag or DCHEALTH_CONFIG.
func cfgFile() string {
	return viper.GetString("config")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
