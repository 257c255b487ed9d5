package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
)

// registerRuntimeHandlers subscribes the three network handlers used on the
// connected path.
func registerRuntimeHandlers(dev *device.Context) error {
	handlers := []struct {
		kind notify.Kind
		sub  notify.Subscriber
	}{
		{notify.WifiStatusChanged, notify.OnWifiStatus(wifiStatusHandler)},
		{notify.WifiParamsChanged, notify.OnWifiParams(wifiParamsHandler(dev))},
		{notify.DhcpCompleted, notify.OnDhcp(dhcpHandler(dev))},
	}

	for _, h := range handlers {
		if err := dev.Registry.Register(h.kind, h.sub); err != nil {
			return err
		}
	}
	return nil
}

func wifiStatusHandler(_ context.Context, ev notify.WifiStatusEvent) error {
	switch ev.Status {
	case notify.StationUp:
		logging.Info("Station up")
	case notify.StationDown:
		logging.Info("Station down")
	}
	return nil
}

// wifiParamsHandler keeps the record in step with what the radio actually
// associated with, persisting only on change.
func wifiParamsHandler(dev *device.Context) func(context.Context, notify.WifiParamsEvent) error {
	return func(_ context.Context, ev notify.WifiParamsEvent) error {
		changed, err := dev.Store.MergeWifiParams(ev.AP, ev.Key)
		if err != nil {
			return err
		}
		if changed {
			logging.Debug("Access point parameters updated",
				zap.String("ssid", ev.AP.SSID),
				zap.Stringer("bssid", ev.AP.BSSID),
				zap.Int("channel", ev.AP.Channel),
			)
		}
		return nil
	}
}

func dhcpHandler(dev *device.Context) func(context.Context, notify.DhcpEvent) error {
	return func(_ context.Context, ev notify.DhcpEvent) error {
		dev.Store.SetNetStatus(ev.Net)
		logging.Info("DHCP completed",
			zap.String("ip", ev.Net.IP),
			zap.String("gateway", ev.Net.Gateway),
		)
		return nil
	}
}
