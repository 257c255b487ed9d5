// Package server implements the device's local configuration server.
//
// The server runs while the device is being provisioned and, when the
// persisted record enables it, alongside connected operation. It speaks
// plain HTTP (or HTTPS when a certificate is configured) with Basic
// authentication; the factory credentials are SmarTap:yeswecan.
//
// # Routes
//
//	GET  /        device view as JSON (record, live addressing, state, versions)
//	POST /        credential push, form fields __SL_P_USD, __SL_P_PSD, __SL_P_ENC
//	POST /system  lifecycle command, form field __SL_P_SYS
//	               (reset, factory-reset, standby, radio-off)
//	GET  /events  websocket stream of notifications
//
// A credential push is validated, persisted with the configured flag set
// and followed by a soft reset, so the device reboots into connected
// operation. System commands are accepted with 202 and carried out by the
// lifecycle controller after the response is written.
//
// # Event Stream
//
// On the connected path every WiFi status, WiFi parameter, DHCP and
// power-off notification is sent to connected websocket clients as a JSON
// EventMessage. While provisioning, only the power-off notice is sent.
//
//	{"seq":3,"session":"6f1c...","kind":"dhcp-completed","time":"...",
//	 "data":{"ip":"192.168.1.40","mask":"255.255.255.0",...}}
//
// Sequence numbers increase per server. A client that cannot keep up loses
// messages instead of delaying the notification dispatch. The server pings
// idle clients and closes the stream with "going away" on shutdown.
//
// # TLS
//
// When both a certificate and a key path are configured the listener is
// wrapped in TLS 1.2 with ECDHE cipher suites.
package server
