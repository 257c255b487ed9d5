package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/ui"
)

// Command flags
var (
	deviceRef    string
	devicePort   int
	username     string
	password     string
	registryPath string
	scanTimeout  int
	outputFormat string
	security     string
	wifiKey      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceRef, "device", "", "Device IP address, MAC or nickname (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 0, "Configuration server port (default 8080 or last seen)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "Configuration server user")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Configuration server password")
	rootCmd.PersistentFlags().StringVar(&registryPath, "devices-file", "", "Device list file (default: user config dir)")
	rootCmd.PersistentFlags().IntVar(&scanTimeout, "timeout", 0, "Discovery timeout in seconds")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setWiFiCmd)
	rootCmd.AddCommand(watchCmd)
	for _, cmd := range systemCommands {
		rootCmd.AddCommand(cmd)
	}
}

// commandContext is cancelled on Ctrl-C.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Smartap devices on the network",
	Long: `Scan for devices advertising the configuration service over mDNS.

Every device found is remembered in the device list, so later commands can
refer to it by MAC address, advertised name or nickname.`,
	Example: `  # Scan with the default timeout
  smartap-cfg scan

  # Longer scan for busy networks
  smartap-cfg scan --timeout 30`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	timeout := scanDuration(reg)
	fmt.Printf("Scanning for Smartap devices (timeout: %s)...\n\n", timeout)

	devices, err := scan(ctx, reg, timeout)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on")
		fmt.Println("  - A device only advertises while provisioning or with its config server enabled")
		fmt.Println("  - Verify your computer is on the same network as the device")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))
	fmt.Print(ui.DeviceList(devices, nicknames(reg)))
	fmt.Println("Use 'smartap-cfg show --device <mac|name>' to view device configuration")
	return nil
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List remembered devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		macs := reg.MACs()
		if len(macs) == 0 {
			fmt.Println("No devices remembered yet. Run 'smartap-cfg scan'.")
			return nil
		}
		for _, mac := range macs {
			d := reg.Devices[mac]
			name := d.Name
			if d.Nickname != "" {
				name = fmt.Sprintf("%s (%s)", name, d.Nickname)
			}
			fmt.Printf("%s  %-30s %s:%d  last seen %s\n", mac, name, d.LastIP, d.LastPort, d.LastSeen.Format(time.DateTime))
		}
		return nil
	},
}

var aliasCmd = &cobra.Command{
	Use:     "alias <mac|name> <nickname>",
	Short:   "Give a remembered device a nickname",
	Example: `  smartap-cfg alias c4:be:84:74:86:37 upstairs`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		mac, _, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown device %q", args[0])
		}
		if err := reg.SetNickname(mac, args[1]); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		fmt.Printf("%s is now %q\n", mac, args[1])
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show device configuration",
	Long: `Display the configuration record and live status of a device: the
configured flag, access point, addressing, power save flags, lifecycle
state and firmware versions.`,
	Example: `  # Show config with auto-discovery
  smartap-cfg show

  # Show config of a remembered device
  smartap-cfg show --device upstairs

  # JSON output for scripting
  smartap-cfg show --device 192.168.1.40 --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	t, err := resolveTarget(ctx, reg)
	if err != nil {
		return err
	}

	view, err := newClient(t, reg).GetConfiguration(ctx)
	if err != nil {
		fmt.Println(ui.NewFailureResult("Could not read configuration from "+t.String(), err).Render())
		return fmt.Errorf("failed to get configuration: %w", err)
	}
	if view.MAC != "" {
		reg.Remember(view.MAC, view.Name, t.IP, t.Port)
		saveRegistry(reg)
	}

	switch outputFormat {
	case "compact":
		fmt.Println(view.FormatCompact())
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		fmt.Println(view.FormatDetailed())
	}
	return nil
}

var setWiFiCmd = &cobra.Command{
	Use:   "set-wifi <ssid>",
	Short: "Send WiFi credentials to a device",
	Long: `Push network credentials to a device's configuration server.

The device stores them, marks itself configured and reboots into connected
operation. When --key is not given for a secured network, the key is read
from the terminal without echo.`,
	Example: `  # Prompt for the key
  smartap-cfg set-wifi HomeNet --device 192.168.1.40

  # Open network
  smartap-cfg set-wifi CoffeeShop --security OPEN`,
	Args: cobra.ExactArgs(1),
	RunE: runSetWiFi,
}

func init() {
	setWiFiCmd.Flags().StringVar(&security, "security", deviceconfig.SecurityWPA2AES.String(), "Security type (WPA2, OPEN)")
	setWiFiCmd.Flags().StringVar(&wifiKey, "key", "", "WiFi key (prompted when omitted)")
}

func runSetWiFi(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	wifi := &deviceconfig.WiFiConfig{
		SSID:         args[0],
		Password:     wifiKey,
		SecurityType: strings.ToUpper(security),
	}
	if wifi.SecurityType != deviceconfig.SecurityNone.String() && wifi.Password == "" {
		key, err := ui.ReadSecret(fmt.Sprintf("Key for %q: ", wifi.SSID))
		if err != nil {
			return err
		}
		wifi.Password = key
	}
	if errs := deviceconfig.ValidateWiFiConfig(wifi); len(errs) > 0 {
		return fmt.Errorf("%s", deviceconfig.FormatValidationErrors(errs))
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	t, err := resolveTarget(ctx, reg)
	if err != nil {
		return err
	}

	fmt.Println(ui.NewHeader("Set WiFi", "smartap-cfg set-wifi "+wifi.SSID, map[string]string{
		"Device":   t.String(),
		"SSID":     wifi.SSID,
		"Security": wifi.SecurityType,
	}).Render())

	if err := newClient(t, reg).UpdateWiFi(ctx, wifi); err != nil {
		fmt.Println(ui.NewFailureResult("Credentials not accepted", err).Render())
		return err
	}

	fmt.Println(ui.NewSuccessResult("Credentials accepted", map[string]string{
		"SSID":   wifi.SSID,
		"Next":   "device reboots and joins the network",
		"Follow": "smartap-cfg scan",
	}).Render())
	return nil
}

// systemCommands are the lifecycle requests accepted on POST /system.
var systemCommands = []*cobra.Command{
	newSystemCommand(deviceconfig.CommandReset, "Clear WiFi credentials and reboot into provisioning",
		"Equivalent to a short button press. The rest of the record is kept."),
	newSystemCommand(deviceconfig.CommandFactoryReset, "Restore the factory record and reboot",
		"Equivalent to a long button press. Every setting returns to its default."),
	newSystemCommand(deviceconfig.CommandStandby, "Put the device into standby",
		"Subscribers are told the device will power off, then it enters standby."),
	newSystemCommand(deviceconfig.CommandRadioOff, "Power down the WiFi radio",
		"The device stays up with its radio off until the next reset."),
}

func newSystemCommand(sc deviceconfig.SystemCommand, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   string(sc),
		Short: short,
		Long:  short + ".\n\n" + long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			t, err := resolveTarget(ctx, reg)
			if err != nil {
				return err
			}

			if err := newClient(t, reg).SendSystemCommand(ctx, sc); err != nil {
				fmt.Println(ui.NewFailureResult("Command "+string(sc)+" refused", err).Render())
				return err
			}
			fmt.Println(ui.NewSuccessResult("Command accepted", map[string]string{
				"Device":  t.String(),
				"Command": string(sc),
			}).Render())
			return nil
		},
	}
}
