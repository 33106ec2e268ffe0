//go:build unix || linux || darwin

package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

func platformLock(f *os.File, mode Mode) error {
	op := unix.LOCK_SH
	if mode == Exclusive {
		op = unix.LOCK_EX
	}
	// Blocking flock — no LOCK_NB, so the call waits for the lock.
	return unix.Flock(int(f.Fd()), op)
}

func platformUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
