/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radiomoe",
	Short: "LISTEN.moe metadata client for the terminal",
	Long: `radiomoe is a client for the LISTEN.moe metadata gateway.

It keeps a persistent websocket connection to the gateway, follows
track changes in real time, and announces each track at the moment it
becomes audible to a listener whose playback lags behind the live
broadcast.

Announced tracks are archived locally, so the now and history commands
work without a live connection - useful for tmux status lines or other
status bars.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
