package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	PatchesPrefix = "federation/patches/"
	ReportsPrefix = "federation/reports/"
	QueueKey      = "federation/queues/patch-review.json"

	// KeyTimeLayout is the second-precision timestamp embedded in keys.
	KeyTimeLayout = "20060102-150405"
	// SentinelTimestamp stands in for keys without a parseable timestamp so
	// they sort after every real one.
	SentinelTimestamp = "00000000-000000"
)

var patchKeyPattern = regexp.MustCompile(`patches/(\d{8}-\d{6})(?:\.(\d+))?-`)

func proposalKey(ts time.Time, seq int, target string) string {
	stamp := ts.UTC().Format(KeyTimeLayout)
	if seq == 0 {
		return fmt.Sprintf("%s%s-%s.json", PatchesPrefix, stamp, target)
	}
	return fmt.Sprintf("%s%s.%d-%s.json", PatchesPrefix, stamp, seq, target)
}

func reportKey(ts time.Time, id int64) string {
	return fmt.Sprintf("%s%s-%d.json", ReportsPrefix, ts.UTC().Format(KeyTimeLayout), id)
}

// ParseKeyTimestamp extracts the timestamp token and same-second sequence
// from a proposal key. ok is false and ts is the sentinel when the key does
// not carry one.
func ParseKeyTimestamp(key string) (ts string, seq int, ok bool) {
	m := patchKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return SentinelTimestamp, 0, false
	}
	if m[2] != "" {
		seq, _ = strconv.Atoi(m[2])
	}
	return m[1], seq, true
}
