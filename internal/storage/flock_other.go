//go:build !unix

package storage

import "os"

// advisoryLock/advisoryUnlock are no-ops on platforms without flock(2);
// the in-process fileMu still serializes goroutines within this daemon.
func advisoryLock(f *os.File, exclusive bool) error { return nil }
func advisoryUnlock(f *os.File) error                { return nil }
