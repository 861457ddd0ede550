// Package histogram implements the variable-width bucketed histogram
// over unsigned 64-bit observations: periodic compaction plus trimean,
// IQR, robust standard-deviation estimate, signal-to-noise ratio,
// six-sigma outlier detection, and a textual sparkline.
package histogram

import "github.com/archlens/pulse/pkg/safeconv"

// MaxBuckets bounds the number of live buckets. The kernel-facing design
// stores observation_min in 64 bits, observation_span in 40 bits (up to
// ~10^12) and count in 24 bits (up to ~1.67×10^7); Go has no need for the
// bit-packed representation, so Bucket uses plain 64-bit fields while
// still enforcing the same logical limits.
const MaxBuckets = 256

// maxBucketCount is the logical ceiling a single bucket's count may
// reach before further observations would overflow the 24-bit field the
// source format uses; reaching it is the histogram_overflow condition
// from §7, which compaction is designed to make unreachable.
const maxBucketCount = 1<<24 - 1

// Bucket is a single variable-width histogram bucket. Its observed
// maximum is Min + Span.
type Bucket struct {
	Min   uint64
	Span  uint64
	Count uint32
}

// Max returns the bucket's upper bound.
func (b Bucket) Max() uint64 { return b.Min + b.Span }

// overlaps reports whether b and other's ranges intersect or touch.
func (a Bucket) overlaps(b Bucket) bool {
	return a.Min <= b.Max() && b.Min <= a.Max()
}

// merge combines a and b into a single bucket spanning both ranges. The
// combined count is checked against maxBucketCount: compaction is
// designed to keep this unreachable (§7's histogram_overflow), so a
// violation here means an internal invariant broke upstream.
func mergeBuckets(a, b Bucket) Bucket {
	lo := a.Min
	if b.Min < lo {
		lo = b.Min
	}

	hi := a.Max()
	if b.Max() > hi {
		hi = b.Max()
	}

	count := safeconv.MustUint64ToBoundedUint32(uint64(a.Count)+uint64(b.Count), maxBucketCount)

	return Bucket{Min: lo, Span: hi - lo, Count: count}
}
