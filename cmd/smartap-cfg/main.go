// Smartap-cfg configures Smartap valves over their local configuration server.
//
// It discovers devices advertising the configuration service over mDNS,
// shows their configuration and live status, pushes WiFi credentials to a
// device waiting for provisioning, streams its notifications and sends it
// lifecycle commands (reset, factory reset, standby, radio off).
//
// Usage:
//
//	smartap-cfg [command] [flags]
//
// See 'smartap-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smartap-cfg",
	Short: "Smartap Device Configuration Utility",
	Long: `A standalone utility for configuring Smartap valves.

Devices are found with mDNS and remembered in a local device list, so later
commands can name a device by MAC address or nickname instead of its IP.

Set SMARTAP_LOG_LEVEL=debug to see what the tool is doing.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smartap-cfg %s\n", version.Full())
	},
}
