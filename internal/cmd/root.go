// Package cmd wires the traefik-dns-sync command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"traefik-dns-sync/internal/logging"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// logger is built in PersistentPreRunE and shared by all subcommands.
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "traefik-dns-sync",
	Short: "Keep Cloudflare A records in sync with Traefik-routed hostnames",
	Long: `traefik-dns-sync watches a Traefik dynamic configuration (file or directory),
resolves the host's public IPv4 address, and reconciles Cloudflare A records so
every routed hostname points at this host. Records it creates are tagged with a
managed marker in the record comment; only marked records are ever deleted.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnvFile(cmd); err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		l, err := logging.New(format, level)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// Execute runs the command tree; the caller maps the error to the exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "path to a .env file to load before executing")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text|json)")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)

	// A .env in the working directory is optional; shell environment wins
	// when both are set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}
}

func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env")
	if path == "" {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}
