//go:build !unix

package platform

import (
	"fmt"
	"os"
	"os/exec"
)

func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to restart: %w", err)
	}
	os.Exit(0)
	return nil
}
