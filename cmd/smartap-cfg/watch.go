package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream a device's notifications",
	Long: `Connect to the device's event stream and print every notification as it
happens: station up and down, the access point joined, DHCP results and
power-off warnings. Press Ctrl-C to stop.`,
	Example: `  smartap-cfg watch --device upstairs`,
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	client := newClient(t, reg)

	fmt.Println(ui.NewHeader("Watch", "smartap-cfg watch", map[string]string{
		"Device": t.String(),
		"Stream": client.EventsURL(),
	}).Render())

	return watch(ctx, client, func(msg *deviceconfig.EventMessage) {
		fmt.Println(ui.Event(msg))
	})
}

// watch reads the event stream until ctx is done or the device closes it.
func watch(ctx context.Context, client *deviceconfig.Client, onEvent func(*deviceconfig.EventMessage)) error {
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(client.Username+":"+client.Password)))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, client.EventsURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return deviceconfig.NewAuthError("event stream refused credentials")
		}
		return deviceconfig.NewNetworkError("failed to open event stream", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway) {
				fmt.Println("Device closed the stream (going away)")
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("stream closed: %w", err)
			}
			return deviceconfig.NewNetworkError("event stream interrupted", err)
		}

		msg, err := deviceconfig.ParseEventMessage(data)
		if err != nil {
			logging.Warn("Skipping malformed event", zap.Error(err))
			continue
		}
		onEvent(msg)
	}
}
