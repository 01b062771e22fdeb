package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ward",
		Short: "Open Ward reminder service",
	}
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (default $WARD_CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(backupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return os.Getenv("WARD_CONFIG_PATH")
}
