package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	_  = iota // ignore first value
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

// FormatBytes renders b in the largest unit it reaches, avoiding .00 for whole numbers.
func FormatBytes(b int64) string {
	val := float64(b)
	var unit string

	switch {
	case b >= TB:
		val /= float64(TB)
		unit = "TB"
	case b >= GB:
		val /= float64(GB)
		unit = "GB"
	case b >= MB:
		val /= float64(MB)
		unit = "MB"
	case b >= KB:
		val /= float64(KB)
		unit = "KB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// ParseBytes parses sizes such as "512", "4KB", "1.5MB" or "0x1000".
// Units are binary and case-insensitive; an empty string parses as 0.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}

	upper := strings.ToUpper(s)

	multiplier := uint64(1)
	for _, u := range []struct {
		suffix string
		mul    uint64
	}{
		{"TB", TB}, {"GB", GB}, {"MB", MB}, {"KB", KB}, {"B", 1},
	} {
		if strings.HasSuffix(upper, u.suffix) {
			multiplier = u.mul
			upper = strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
			break
		}
	}

	if n, err := strconv.ParseUint(upper, 10, 64); err == nil {
		if n > math.MaxUint64/multiplier {
			return 0, fmt.Errorf("size %q overflows uint64", s)
		}
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(upper, 64)
	if err != nil || !(f >= 0) {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	// 2^64 is exactly representable; anything at or above it does not fit.
	v := f * float64(multiplier)
	if v >= math.Exp2(64) {
		return 0, fmt.Errorf("size %q overflows uint64", s)
	}
	return uint64(v), nil
}

// FormatDurationHMS formats d as HH:MM:SS, or as fractional seconds below one second.
func FormatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
