package store

import (
	"math"
	"time"
)

// unixBounds turns optional time bounds into an inclusive epoch range.
func unixBounds(from, to time.Time) (int64, int64) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !from.IsZero() {
		lo = from.Unix()
	}
	if !to.IsZero() {
		hi = to.Unix()
	}
	return lo, hi
}

func reportKey(location, date string) string {
	return location + "|" + date
}
