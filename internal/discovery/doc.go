// Package discovery advertises and finds the Smartap local configuration
// service over mDNS.
//
// Devices publish the "_smartap-cfg._tcp" service while their local
// configuration server runs. The TXT record carries the device MAC, its
// name, the provisioning mode and whether the device is still unconfigured.
// In WAC provisioning mode the accessory parameters are added: firmware and
// hardware revision, serial number, model, manufacturer and the supported
// WiFi bands.
//
// # Advertising
//
//	ad := discovery.Advertisement{
//	    Instance:     "eValve-aabbcc",
//	    Port:         8080,
//	    MAC:          mac,
//	    Name:         "Smartap Device",
//	    Mode:         "easylink",
//	    Unconfigured: true,
//	}
//	server, err := zeroconf.Register(ad.Instance, discovery.ServiceType,
//	    discovery.ServiceDomain, ad.Port, ad.TXT(), nil)
//
// # Scanning
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 5 * time.Second
//	devices, err := scanner.ScanForDevices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("%s %s at %s\n", d.Name(), d.MAC, d.BaseURL())
//	}
//
// Entries without a MAC in their TXT record are ignored, and repeated
// answers for the same instance collapse into one Device.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
