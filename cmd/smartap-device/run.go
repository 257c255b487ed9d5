package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/config"
	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/platform"
	"github.com/muurk/smartap-lifecycle/internal/provisioning"
	"github.com/muurk/smartap-lifecycle/internal/server"
	"github.com/muurk/smartap-lifecycle/internal/uplink"
	"github.com/muurk/smartap-lifecycle/internal/version"
	"github.com/muurk/smartap-lifecycle/internal/watchdog"
)

var (
	optionsPath string
	logLevel    string
	dataDir     string
	serverAddr  string
	broker      string
	storage     string
	provMode    string
	noWatchdog  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the device and run until interrupted",
	Long: `Boot the device and run the lifecycle controller.

Options are read from the options file (see --config) and may be overridden
by SMARTAP_DEVICE_* environment variables and then by flags.

Signals:
  SIGUSR1          short button press: clear credentials, reboot into provisioning
  SIGUSR2          long button press: restore factory record, reboot
  SIGINT, SIGTERM  clean shutdown`,
	Example: `  # Boot with defaults
  smartap-device run

  # Keep the record in a CBOR flash image and report to a broker
  smartap-device run --storage flash --broker tcp://192.168.1.10:1883

  # Debug logging, local server on port 9090
  smartap-device run --log-level debug --addr :9090`,
	RunE: runDevice,
}

func init() {
	runCmd.Flags().StringVar(&optionsPath, "config", "", "Path to options file (default: user config dir)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the persisted record")
	runCmd.Flags().StringVar(&serverAddr, "addr", "", "Local configuration server listen address")
	runCmd.Flags().StringVar(&broker, "broker", "", "MQTT broker URL (empty disables the uplink)")
	runCmd.Flags().StringVar(&storage, "storage", "", "Record backend (yaml, flash)")
	runCmd.Flags().StringVar(&provMode, "provisioning", "", "Provisioning mode (easylink, wac)")
	runCmd.Flags().BoolVar(&noWatchdog, "no-watchdog", false, "Disable the software watchdog")
}

func loadOptions() (*config.Options, error) {
	opts, err := config.LoadOptions(optionsPath)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&opts.Log.Level, logLevel)
	set(&opts.DataDir, dataDir)
	set(&opts.Server.Addr, serverAddr)
	set(&opts.Uplink.Broker, broker)
	set(&opts.Storage.Backend, storage)
	set(&opts.Provisioning.Mode, provMode)
	if noWatchdog {
		opts.Watchdog.Enabled = false
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func runDevice(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	if err := logging.InitializeWithFile(opts.Log.Level, logging.FileOptions{
		Path:       opts.Log.File,
		MaxSizeMB:  opts.Log.MaxSizeMB,
		MaxBackups: opts.Log.MaxBackups,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	backend, err := config.NewBackend(opts)
	if err != nil {
		return err
	}

	port, err := listenPort(opts.Server.Addr)
	if err != nil {
		return err
	}

	host := platform.NewHost()
	radio := platform.NewSimRadio(platform.DefaultSimOptions())

	deps := lifecycle.Deps{
		Platform: host,
		Radio:    radio,
		Backend:  backend,
	}

	var soft *watchdog.Soft
	if opts.Watchdog.Enabled {
		soft = watchdog.NewSoft(func() {
			logging.Error("Watchdog expired, rebooting")
			if err := host.SoftReboot(context.Background()); err != nil {
				logging.Fatal("Reboot after watchdog expiry failed", zap.Error(err))
			}
		})
		deps.Watchdog = soft
	}

	srv := server.New(&server.Config{
		Addr:            opts.Server.Addr,
		Username:        opts.Server.Username,
		Password:        opts.Server.Password,
		CertPath:        opts.Server.CertFile,
		KeyPath:         opts.Server.KeyFile,
		SoftwareVersion: version.Version,
		NetworkLibrary:  radio.LibraryVersion(),
	})
	deps.ConfigServer = srv
	deps.Provisioner = provisioning.New(srv, port)

	if opts.Uplink.Broker != "" {
		deps.Application = uplink.New(uplink.Config{
			Broker:   opts.Uplink.Broker,
			Username: opts.Uplink.Username,
			Password: opts.Uplink.Password,
			QoS:      opts.Uplink.QoS,
			Version:  version.Version,
		})
	}

	orch := lifecycle.New(deps, lifecycle.Options{
		Device: device.Options{
			ResetGrace:     opts.Lifecycle.ResetGrace,
			StandbyGrace:   opts.Lifecycle.StandbyGrace,
			SignalInitial:  opts.Lifecycle.SignalInitial,
		},
		WatchdogTimeout: opts.Watchdog.Timeout,
		Provisioning: lifecycle.ProvisioningParams{
			Mode:    opts.Provisioning.Mode,
			Timeout: opts.Provisioning.Timeout,
			Serial:  opts.Provisioning.Serial,
		},
		Identity: opts.Lifecycle.Identity,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go handleButtons(ctx, orch)

	logging.Info("Starting device",
		zap.String("version", version.Version),
		zap.String("storage", opts.Storage.Backend),
		zap.String("record", opts.RecordPath()),
		zap.Bool("watchdog", opts.Watchdog.Enabled),
	)

	err = orch.Run(ctx)

	if soft != nil {
		soft.Stop()
	}
	radio.Wait()
	if err != nil {
		logging.Error("Device stopped", zap.Error(err))
		return err
	}
	logging.Info("Device stopped")
	return nil
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid server port %q: %w", p, err)
	}
	return port, nil
}
