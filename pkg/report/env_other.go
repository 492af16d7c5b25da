//go:build !unix

package report

func osRelease() (string, string) {
	return "unknown", "unknown"
}
