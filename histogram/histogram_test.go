package histogram_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/histogram"
)

func TestHistogram_ZeroObservations(t *testing.T) {
	t.Parallel()

	h := histogram.New()

	assert.Equal(t, uint64(0), h.Count())
	assert.Equal(t, float64(0), h.Trimean())
	assert.Equal(t, float64(0), h.IQR())
	assert.Equal(t, float64(0), h.StdDevEstimate())
	assert.Equal(t, "", h.Sparkline(20))

	low, high := h.HasOutliers()
	assert.False(t, low)
	assert.False(t, high)
}

func TestHistogram_SingleObservation(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	h.Add(42)

	assert.Equal(t, uint64(1), h.Count())
	assert.Equal(t, uint64(42), h.ByRank(1))
	assert.Equal(t, float64(42), h.Trimean())
	assert.Equal(t, float64(0), h.IQR())
}

func TestHistogram_TwoObservations(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	h.Add(10)
	h.Add(30)

	assert.Equal(t, h.ByRank(1), uint64(h.Trimean()))
	assert.Equal(t, float64(h.ByRank(2)-h.ByRank(1)), h.IQR())
}

func TestHistogram_CompactionIsIdempotent(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	for i := uint64(0); i < 300; i++ {
		h.Add(i * 7)
	}

	h.Compact()
	first := h.Buckets()

	h.Compact()
	second := h.Buckets()

	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(second), histogram.MaxBuckets)
}

func TestHistogram_BucketCountNeverExceedsMax(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	for i := uint64(0); i < 10_000; i++ {
		h.Add(i)
	}

	assert.LessOrEqual(t, h.BucketCount(), histogram.MaxBuckets)

	var total uint64

	for _, b := range h.Buckets() {
		total += uint64(b.Count)
	}

	assert.Equal(t, h.Count(), total)
}

// TestHistogram_OutlierDetection covers §8 scenario 3: 997 observations
// drawn uniformly from [100, 200] and 3 equal to 10000 should trip the
// high-tail outlier flag but not the low tail, with trimean inside
// [120, 180].
func TestHistogram_OutlierDetection(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	h := histogram.New()

	for i := 0; i < 997; i++ {
		h.Add(uint64(100 + rng.Intn(101)))
	}

	for i := 0; i < 3; i++ {
		h.Add(10000)
	}

	low, high := h.HasOutliers()
	assert.False(t, low)
	assert.True(t, high)

	trimean := h.Trimean()
	assert.GreaterOrEqual(t, trimean, float64(120))
	assert.LessOrEqual(t, trimean, float64(180))
}

func TestHistogram_SparklineWidth(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	for i := uint64(0); i < 50; i++ {
		h.Add(i)
	}

	spark := h.Sparkline(16)
	assert.Equal(t, 16, len([]rune(spark)))
}

func TestHistogram_FromBucketsRoundTrip(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	for i := uint64(0); i < 500; i++ {
		h.Add(i * 3)
	}

	buckets := h.Buckets()
	restored := histogram.FromBuckets(buckets, h.Count())

	require.Equal(t, h.Count(), restored.Count())
	assert.Equal(t, h.Trimean(), restored.Trimean())
}

func TestHistogram_SNRClampedToRange(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	for i := 0; i < 100; i++ {
		h.Add(1000)
	}

	snr := h.SNRdB()
	assert.GreaterOrEqual(t, snr, float64(0))
	assert.LessOrEqual(t, snr, float64(99))
}

func TestHistogram_String(t *testing.T) {
	t.Parallel()

	h := histogram.New()
	assert.Equal(t, "(no observations)", h.String())

	h.Add(10)
	h.Add(20)
	assert.NotEmpty(t, h.String())
}
