//go:build unix

package report

import (
	"golang.org/x/sys/unix"
)

func osRelease() (string, string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "unknown", "unknown"
	}
	return unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Version[:])
}
