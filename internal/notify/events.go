package notify

import (
	"fmt"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
)

// Kind identifies a system-wide notification.
type Kind int

const (
	// ReadAppInfo asks subscribers to fill an identity buffer.
	ReadAppInfo Kind = iota
	// WifiStatusChanged reports station up or down.
	WifiStatusChanged
	// WifiParamsChanged reports the access point parameters the radio associated with.
	WifiParamsChanged
	// DhcpCompleted reports the addressing obtained from DHCP.
	DhcpCompleted
	// SysWillPowerOff is broadcast before a reboot, radio power-down or standby.
	SysWillPowerOff

	numKinds
)

var kindNames = [numKinds]string{
	ReadAppInfo:       "read-app-info",
	WifiStatusChanged: "wifi-status",
	WifiParamsChanged: "wifi-params",
	DhcpCompleted:     "dhcp-completed",
	SysWillPowerOff:   "sys-will-power-off",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Event is a notification payload.
type Event interface {
	Kind() Kind
}

// WifiStatus is the station link state.
type WifiStatus int

const (
	StationDown WifiStatus = iota
	StationUp
)

func (s WifiStatus) String() string {
	if s == StationUp {
		return "up"
	}
	return "down"
}

type WifiStatusEvent struct {
	Status WifiStatus
}

func (WifiStatusEvent) Kind() Kind { return WifiStatusChanged }

// WifiParamsEvent carries what the radio associated with, including the key
// it used. Key material must never be logged.
type WifiParamsEvent struct {
	AP  deviceconfig.ApInfo
	Key deviceconfig.Key
}

func (WifiParamsEvent) Kind() Kind { return WifiParamsChanged }

type DhcpEvent struct {
	Net deviceconfig.NetInfo
}

func (DhcpEvent) Kind() Kind { return DhcpCompleted }

type PowerOffEvent struct{}

func (PowerOffEvent) Kind() Kind { return SysWillPowerOff }

// AppInfoQuery is a caller-provided bounded text buffer. Subscribers fill
// it with an identity string; overlong text is truncated.
type AppInfoQuery struct {
	buf []byte
	n   int
}

// NewAppInfoQuery returns a query whose buffer holds at most size bytes.
func NewAppInfoQuery(size int) *AppInfoQuery {
	if size < 0 {
		size = 0
	}
	return &AppInfoQuery{buf: make([]byte, size)}
}

func (*AppInfoQuery) Kind() Kind { return ReadAppInfo }

// Fill replaces the buffer contents with s, truncated to the buffer size.
func (q *AppInfoQuery) Fill(s string) {
	q.n = copy(q.buf, s)
}

// Cap returns the buffer size.
func (q *AppInfoQuery) Cap() int { return len(q.buf) }

// String returns the filled text.
func (q *AppInfoQuery) String() string {
	return string(q.buf[:q.n])
}
