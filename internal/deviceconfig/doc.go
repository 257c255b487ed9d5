// Package deviceconfig defines the device configuration record and the
// client used to read and change it over the device's local configuration server.
//
// # The Record
//
// SystemConfig is the persisted record: configured flag, access point
// (SSID, BSSID, channel, security, key), addressing (DHCP or four static
// strings), power-save and local-server feature flags, and the device name.
// It is a plain value type; copying it copies the key material too.
//
// Binary fields use bounded types instead of strings:
//   - BSSID is a [6]byte compared with ==
//   - Key is a fixed-capacity buffer plus an explicit length; Equal compares
//     the length and the bytes within it, never the padding
//
//	key, err := deviceconfig.KeyFromBuffer(raw, declaredLen)
//	if err != nil {
//	    return err
//	}
//	changed := !key.Equal(current.Key)
//
// # Local Configuration Server Client
//
//	client := deviceconfig.NewClient("192.168.4.16", deviceconfig.DefaultPort)
//
//	view, err := client.GetConfiguration(ctx)
//	if err != nil {
//	    log.Fatal(deviceconfig.GetTroubleshootingHint(err))
//	}
//	fmt.Print(view.FormatDetailed())
//
//	err = client.UpdateWiFi(ctx, &deviceconfig.WiFiConfig{
//	    SSID:         "HomeNet",
//	    Password:     "correct horse",
//	    SecurityType: "WPA2",
//	})
//
// Retryable failures (network errors, HTTP 5xx) are retried with
// exponential backoff. System commands are never retried.
//
// # Error Handling
//
// Failures are reported as *DeviceError with an ErrorType. The lifecycle
// controller uses the Storage, Provisioning and Startup types; the client
// uses the network, HTTP, auth and parse types. Use errors.As or the Is*
// helpers to inspect them.
package deviceconfig
