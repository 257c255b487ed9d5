package uplink

import (
	"fmt"
	"net"
	"strings"
)

// TopicPrefix is the root of every uplink topic.
const TopicPrefix = "smartap"

// Topics builds the per-device topic tree, keyed by the MAC address in
// lowercase hex without separators.
//
//	smartap/c4be847486a7/status       retained device status
//	smartap/c4be847486a7/cmd          system commands in
//	smartap/c4be847486a7/event/<kind> notifications out
type Topics struct {
	Device string
}

// TopicsFor returns the topic tree of mac.
func TopicsFor(mac net.HardwareAddr) Topics {
	return Topics{Device: strings.ReplaceAll(mac.String(), ":", "")}
}

func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, t.Device)
}

func (t Topics) Command() string {
	return fmt.Sprintf("%s/%s/cmd", TopicPrefix, t.Device)
}

func (t Topics) Event(kind string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefix, t.Device, kind)
}
