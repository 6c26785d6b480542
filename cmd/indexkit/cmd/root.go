/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/indexkit/pkg/config"
)

// configPath is shared across subcommands via the --config persistent flag.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "indexkit",
	Short: "indexkit - in-memory associative index structures",
	Long: `indexkit drives the three index structures in this module
(B+Tree, extendible hashing, linear hashing) from the command line,
loading i -> i*i for i in [1, N] and reporting size, lookups, and the
access counter for each.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults to built-in constants)")
}

// loadConfig returns config.DefaultConfig() unless --config was given, in
// which case it loads and returns that file's contents.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// parseN parses the optional positional N argument, defaulting to 9.
func parseN(args []string) (int, error) {
	if len(args) == 0 {
		return 9, nil
	}
	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid N %q: %w", args[0], err)
	}
	if n < 1 {
		return 0, fmt.Errorf("N must be >= 1, got %d", n)
	}
	return n, nil
}
