//go:build unix

package platform

import (
	"fmt"
	"os"
	"syscall"
)

func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	return syscall.Exec(exe, os.Args, os.Environ())
}
