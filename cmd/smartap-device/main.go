// Smartap-device runs the valve's lifecycle controller on a host.
//
// It boots the device the way the firmware does: the persisted record
// decides between provisioning (mDNS-advertised credential intake on the
// local configuration server) and connected operation (network connect,
// optional local server, optional MQTT uplink). The radio is simulated;
// everything else runs as it would on the board.
//
// Usage:
//
//	smartap-device run [flags]
//
// Button presses are delivered as signals: SIGUSR1 is a short press,
// SIGUSR2 a long press.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smartap-lifecycle/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smartap-device",
	Short: "Smartap valve lifecycle controller",
	Long: `Runs the lifecycle controller of a Smartap eValve.

On boot the persisted configuration record selects the path:
  - unconfigured: advertise over mDNS and wait for WiFi credentials
  - configured:   connect, start the local configuration server and uplink

For device configuration from another machine, use 'smartap-cfg'.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
		fmt.Println(version.Identity())
	},
}
