package notify

import (
	"context"
	"fmt"
)

func unexpected(want Kind, ev Event) error {
	return fmt.Errorf("%w: %T for %s", ErrUnexpectedEvent, ev, want)
}

// OnWifiStatus adapts a typed WiFi status handler.
func OnWifiStatus(fn func(context.Context, WifiStatusEvent) error) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) error {
		e, ok := ev.(WifiStatusEvent)
		if !ok {
			return unexpected(WifiStatusChanged, ev)
		}
		return fn(ctx, e)
	})
}

// OnWifiParams adapts a typed WiFi parameter handler.
func OnWifiParams(fn func(context.Context, WifiParamsEvent) error) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) error {
		e, ok := ev.(WifiParamsEvent)
		if !ok {
			return unexpected(WifiParamsChanged, ev)
		}
		return fn(ctx, e)
	})
}

// OnDhcp adapts a typed DHCP completion handler.
func OnDhcp(fn func(context.Context, DhcpEvent) error) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) error {
		e, ok := ev.(DhcpEvent)
		if !ok {
			return unexpected(DhcpCompleted, ev)
		}
		return fn(ctx, e)
	})
}

// OnPowerOff adapts a power-off handler.
func OnPowerOff(fn func(context.Context) error) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) error {
		if _, ok := ev.(PowerOffEvent); !ok {
			return unexpected(SysWillPowerOff, ev)
		}
		return fn(ctx)
	})
}

// OnAppInfo adapts an identity query handler.
func OnAppInfo(fn func(context.Context, *AppInfoQuery) error) Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) error {
		q, ok := ev.(*AppInfoQuery)
		if !ok {
			return unexpected(ReadAppInfo, ev)
		}
		return fn(ctx, q)
	})
}

// AppInfoResponder answers identity queries with a fixed string.
func AppInfoResponder(identity string) Subscriber {
	return OnAppInfo(func(_ context.Context, q *AppInfoQuery) error {
		q.Fill(identity)
		return nil
	})
}
