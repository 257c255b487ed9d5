//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// handleButtons maps SIGUSR1 and SIGUSR2 to the short and long press.
func handleButtons(ctx context.Context, orch *lifecycle.Orchestrator) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			dev := orch.Device()
			if dev == nil {
				logging.Warn("Button press ignored before boot", zap.Stringer("signal", sig))
				continue
			}
			triggers := lifecycle.NewTriggers(dev)
			var err error
			if sig == syscall.SIGUSR1 {
				logging.Info("Short button press")
				err = triggers.ShortPress()
			} else {
				logging.Info("Long button press")
				err = triggers.LongPress()
			}
			if err != nil {
				logging.Error("Button press failed", zap.Error(err))
			}
		}
	}
}
