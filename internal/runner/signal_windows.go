//go:build windows

package runner

import "golang.org/x/sys/windows"

func sendInterrupt() {
	// CTRL_C_EVENT to every process sharing this console.
	_ = windows.GenerateConsoleCtrlEvent(windows.CTRL_C_EVENT, 0)
}
