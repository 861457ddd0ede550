package histogram

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/archlens/pulse/pkg/alg/stats"
)

// sixSigmaTailMass is the fraction of a normal distribution's mass lying
// beyond six standard deviations from the mean in one tail, used by
// has_outliers to compute the expected count of extreme observations.
const sixSigmaTailMass = 9.87e-10

// iqrToSigma is 2·√2·erfc(0.5), the IQR-to-population-σ scale factor
// for a normal distribution.
const iqrToSigma = 1.35623115191269

// sparklineRunes is the ordered set of block-element characters used by
// Sparkline, from empty to full.
var sparklineRunes = []rune("▁▂▃▄▅▆▇█")

// Histogram accumulates unsigned 64-bit observations into a bounded set
// of variable-width buckets and derives robust statistics from them.
// Not safe for concurrent use; callers needing concurrent access should
// guard their own Histogram instance (each ProfileAggregate entry holds a
// wall and a cpu histogram, both behind the aggregation map's lock).
type Histogram struct {
	buckets []Bucket
	total   uint64
	dirty   bool
}

// New returns an empty Histogram.
func New() *Histogram {
	return &Histogram{}
}

// Add records a single observation. A fresh single-observation bucket is
// appended; reaching MaxBuckets triggers compaction.
func (h *Histogram) Add(observation uint64) {
	h.buckets = append(h.buckets, Bucket{Min: observation, Span: 0, Count: 1})
	h.total++
	h.dirty = true

	if len(h.buckets) >= MaxBuckets {
		h.Compact()
	}
}

// Count returns the total number of observations submitted.
func (h *Histogram) Count() uint64 { return h.total }

// BucketCount returns the current number of live buckets.
func (h *Histogram) BucketCount() int {
	h.Compact()

	return len(h.buckets)
}

// Compact sorts buckets by Min and merges adjacent buckets so the
// neighbor count stays below a computed target size, per §4.3. Calling
// Compact twice back to back is a fixed point: the second call is a
// no-op because h.dirty is false and the bucket list already satisfies
// the merge conditions.
func (h *Histogram) Compact() {
	if !h.dirty {
		return
	}

	sort.Slice(h.buckets, func(i, j int) bool { return h.buckets[i].Min < h.buckets[j].Min })

	if len(h.buckets) == 0 {
		h.dirty = false

		return
	}

	targetSize := 1 + roundInt(float64(h.total)/float64(MaxBuckets))

	merged := make([]Bucket, 0, len(h.buckets))
	merged = append(merged, h.buckets[0])

	for _, b := range h.buckets[1:] {
		last := merged[len(merged)-1]

		if int(last.Count) < targetSize || last.overlaps(b) {
			merged[len(merged)-1] = mergeBuckets(last, b)

			continue
		}

		merged = append(merged, b)
	}

	h.buckets = merged
	h.dirty = false
}

// ByRank compacts then returns the observation at global rank r
// (1 ≤ r ≤ Count). Within the bucket containing rank r, a single-
// observation bucket returns its Min; otherwise the rank is linearly
// interpolated across the bucket's span.
func (h *Histogram) ByRank(r uint64) uint64 {
	h.Compact()

	if h.total == 0 {
		return 0
	}

	if r < 1 {
		r = 1
	}

	if r > h.total {
		r = h.total
	}

	remaining := r

	for _, b := range h.buckets {
		if remaining <= uint64(b.Count) {
			if b.Count <= 1 {
				return b.Min
			}

			return b.Min + (remaining-1)*b.Span/uint64(b.Count-1)
		}

		remaining -= uint64(b.Count)
	}

	return h.buckets[len(h.buckets)-1].Max()
}

// quartileRanks returns the rank indices used for Q1, Q2, Q3 per §4.3.
// Counts below four use a direct small-sample rule pinned by the
// boundary behaviors in the testable-properties section rather than the
// round(n/4)-style formula, which only applies once n ≥ 4.
func (h *Histogram) quartileRanks() (q1, q2, q3 uint64) {
	n := h.total

	switch {
	case n == 0:
		return 0, 0, 0
	case n == 1:
		return 1, 1, 1
	case n == 2:
		return 1, 1, 2
	case n == 3:
		return 1, 2, 3
	default:
		r1 := uint64(roundInt(float64(n) / 4))
		r2 := uint64(roundInt(float64(n) / 2))

		return r1, r2, r1 + r2
	}
}

// Trimean returns (Q1 + 2·Q2 + Q3)/4 for n ≥ 4; for n < 4 it returns the
// pinned small-sample value directly (see quartileRanks), matching the
// documented boundary behaviors for 0/1/2 observations.
func (h *Histogram) Trimean() float64 {
	h.Compact()

	if h.total == 0 {
		return 0
	}

	if h.total < 4 {
		q1, _, _ := h.quartileRanks()

		return float64(h.ByRank(q1))
	}

	q1, q2, q3 := h.quartileRanks()

	return (float64(h.ByRank(q1)) + 2*float64(h.ByRank(q2)) + float64(h.ByRank(q3))) / 4
}

// IQR returns Q3 − Q1. quartileRanks already pins Q1/Q3 to the documented
// small-sample values for n < 4 (0 for a single observation, the full
// range for two or three), so a single rank lookup covers every n.
func (h *Histogram) IQR() float64 {
	h.Compact()

	if h.total == 0 {
		return 0
	}

	q1, _, q3 := h.quartileRanks()

	return float64(h.ByRank(q3)) - float64(h.ByRank(q1))
}

// StdDevEstimate returns the robust standard-deviation estimate
// IQR / 1.35623115191269.
func (h *Histogram) StdDevEstimate() float64 {
	return h.IQR() / iqrToSigma
}

// SNRdB returns 10·log10(trimean²/σ²), clamped to [0, 99]. A trimean of
// 0 is treated as 1 and a σ below 1 is treated as 1, so a histogram with
// no spread never reports an undefined or infinite ratio.
func (h *Histogram) SNRdB() float64 {
	trimean := h.Trimean()
	if trimean == 0 {
		trimean = 1
	}

	sigma := h.StdDevEstimate()
	if sigma < 1 {
		sigma = 1
	}

	snr := 10 * math.Log10((trimean*trimean)/(sigma*sigma))

	return stats.Clamp(snr, 0, 99)
}

// HasOutliers reports whether the low and high tails beyond the
// histogram's trimean ± 6σ hold more observations than a normal
// distribution's six-sigma tail mass would predict.
func (h *Histogram) HasOutliers() (low, high bool) {
	h.Compact()

	if h.total == 0 {
		return false, false
	}

	trimean := h.Trimean()
	sigma := h.StdDevEstimate()

	lowThreshold := trimean - 6*sigma
	highThreshold := trimean + 6*sigma

	expected := uint64(roundInt(float64(h.total) * sixSigmaTailMass))

	lowCount := h.countAtMost(lowThreshold)
	highCount := h.countAtLeast(highThreshold)

	return lowCount > expected, highCount > expected
}

// countAtMost returns the number of observations strictly less than or
// equal to threshold, walking buckets in ascending order and linearly
// interpolating within a straddling bucket the same way ByRank does.
func (h *Histogram) countAtMost(threshold float64) uint64 {
	if threshold < 0 {
		return 0
	}

	var cumulative uint64

	for _, b := range h.buckets {
		bmax := float64(b.Max())

		if bmax <= threshold {
			cumulative += uint64(b.Count)

			continue
		}

		bmin := float64(b.Min)
		if bmin > threshold {
			break
		}

		if b.Count <= 1 {
			if bmin <= threshold {
				cumulative++
			}

			continue
		}

		frac := (threshold - bmin) / float64(b.Span)
		if frac < 0 {
			frac = 0
		}

		cumulative += uint64(roundInt(frac*float64(b.Count-1))) + 1
	}

	return cumulative
}

// countAtLeast returns the number of observations greater than or equal
// to threshold, walking buckets in descending order and interpolating
// within a straddling bucket the same way countAtMost does from the low
// side. It is a direct mirror rather than a complement derived from
// countAtMost's total, so it does not over-count the boundary bucket.
func (h *Histogram) countAtLeast(threshold float64) uint64 {
	if h.total == 0 {
		return 0
	}

	var cumulative uint64

	for i := len(h.buckets) - 1; i >= 0; i-- {
		b := h.buckets[i]
		bmin := float64(b.Min)

		if bmin >= threshold {
			cumulative += uint64(b.Count)

			continue
		}

		bmax := float64(b.Max())
		if bmax < threshold {
			break
		}

		if b.Count <= 1 {
			if bmax >= threshold {
				cumulative++
			}

			continue
		}

		frac := (bmax - threshold) / float64(b.Span)
		if frac < 0 {
			frac = 0
		}

		cumulative += uint64(roundInt(frac*float64(b.Count-1))) + 1
	}

	return cumulative
}

// Sparkline renders a width-character textual chart of bucket
// population, normalized to the tallest column. Returns the empty
// string for a histogram with no observations.
func (h *Histogram) Sparkline(width int) string {
	h.Compact()

	if h.total == 0 || width <= 0 {
		return ""
	}

	columns := make([]uint64, width)
	lo := h.buckets[0].Min
	hi := h.buckets[len(h.buckets)-1].Max()
	span := hi - lo

	for _, b := range h.buckets {
		col := 0

		if span > 0 {
			col = int(float64(b.Min-lo) / float64(span) * float64(width-1))
		}

		if col >= width {
			col = width - 1
		}

		columns[col] += uint64(b.Count)
	}

	max := stats.Max(columns)

	var sb strings.Builder

	for _, c := range columns {
		if max == 0 {
			sb.WriteRune(sparklineRunes[0])

			continue
		}

		idx := roundInt(float64(c) / float64(max) * float64(len(sparklineRunes)-1))
		sb.WriteRune(sparklineRunes[idx])
	}

	return sb.String()
}

// Buckets returns a compacted copy of the histogram's current buckets,
// used to persist and restore a Histogram across a checkpoint without
// replaying every raw observation.
func (h *Histogram) Buckets() []Bucket {
	h.Compact()

	out := make([]Bucket, len(h.buckets))
	copy(out, h.buckets)

	return out
}

// FromBuckets reconstructs a Histogram from a previously captured bucket
// set and total count, the counterpart to Buckets.
func FromBuckets(buckets []Bucket, total uint64) *Histogram {
	h := &Histogram{total: total}
	h.buckets = make([]Bucket, len(buckets))
	copy(h.buckets, buckets)

	return h
}

// String renders a one-line human-readable summary: trimean ± σ and the
// sparkline, suitable for CLI or log output.
func (h *Histogram) String() string {
	if h.total == 0 {
		return "(no observations)"
	}

	return formatSummary(h.Trimean(), h.StdDevEstimate(), h.Sparkline(40))
}

func formatSummary(trimean, sigma float64, spark string) string {
	return "trimean=" + strconv.FormatFloat(trimean, 'f', 1, 64) +
		" ±" + strconv.FormatFloat(sigma, 'f', 1, 64) + " " + spark
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
