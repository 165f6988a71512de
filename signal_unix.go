//go:build unix

package pigpio

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// signalName returns the Unix name of signum ("SIGINT"), or "" if unknown.
func signalName(signum int) string {
	return unix.SignalName(syscall.Signal(signum))
}
