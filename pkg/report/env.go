package report

import (
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"
)

// GetExecEnv describes the machine and user running the scan.
func GetExecEnv() ExecEnv {
	release, version := osRelease()

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	if u, err := user.Current(); err == nil {
		if n, err := strconv.Atoi(u.Uid); err == nil {
			uid = n
		}
	}

	return ExecEnv{
		OS:      runtime.GOOS,
		Release: release,
		Version: version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format(time.RFC3339),
	}
}
