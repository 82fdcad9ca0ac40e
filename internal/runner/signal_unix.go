//go:build !windows

package runner

import (
	"os"

	"golang.org/x/sys/unix"
)

func sendInterrupt() {
	_ = unix.Kill(os.Getpid(), unix.SIGINT)
}
