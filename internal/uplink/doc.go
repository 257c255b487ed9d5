// Package uplink is the application layer started on the connected path.
//
// It keeps a retained status document on an MQTT broker, publishes every
// station, access point and DHCP notification as an event, and accepts the
// same system commands as the local configuration server:
//
//	smartap/<mac>/status        retained, {"online":true,...}
//	smartap/<mac>/event/<kind>  one EventMessage per notification
//	smartap/<mac>/cmd           "reset", "factory-reset", "standby", "radio-off"
//
// The broker connection is made in the background and retried forever, so a
// missing broker never holds up boot. The broker publishes the offline
// status as the connection's will; a planned power-off publishes it first.
package uplink
