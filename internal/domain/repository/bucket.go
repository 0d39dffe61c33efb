package repository

import "time"

// Bucket is a supported rollup granularity.
type Bucket string

const (
	B1m Bucket = "1m"
	B5m Bucket = "5m"
	B1h Bucket = "1h"
)

// IsValidBucket returns true if b is a supported rollup bucket.
func IsValidBucket(b Bucket) bool {
	switch b {
	case B1m, B5m, B1h:
		return true
	default:
		return false
	}
}

// DefaultBucket returns the default rollup bucket.
func DefaultBucket() Bucket { return B1m }

// NormalizeBucket converts a raw string to a valid bucket (or default).
func NormalizeBucket(s string) Bucket {
	if s == "" {
		return DefaultBucket()
	}
	b := Bucket(s)
	if IsValidBucket(b) {
		return b
	}
	return DefaultBucket()
}

// Interval returns the bucket width.
func (b Bucket) Interval() time.Duration {
	switch b {
	case B5m:
		return 5 * time.Minute
	case B1h:
		return time.Hour
	default:
		return time.Minute
	}
}
