package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "laproxy-backend",
	Short: "Learning backend for the laproxy dataplane",
	Long: `laproxy-backend accepts per-connection observations from laproxy
Judges, persists them to append-only per-service logs, and
periodically refits each service's clustering model, propagating
blocked-cluster membership across refits.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
