//go:build !unix

package main

import (
	"context"

	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
)

func handleButtons(ctx context.Context, _ *lifecycle.Orchestrator) {
	logging.Info("Button signals are not available on this platform")
	<-ctx.Done()
}
