//go:build unix

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// advisoryLock/advisoryUnlock back the in-process fileMu with an OS-level
// advisory lock, so a second process opening the same data file (e.g. a
// stray second daemon instance) is serialized too, not just goroutines
// within one process.
func advisoryLock(f *os.File, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	return unix.Flock(int(f.Fd()), how)
}

func advisoryUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
