package quantize

import (
	"math"
	"slices"

	"github.com/arloliu/fitstile/internal/pool"
)

// minNoisePixels is the smallest run of finite pixels a row needs to
// contribute to the noise estimate.
const minNoisePixels = 9

// noiseFactor converts the median of |2x[i] - x[i-2] - x[i+2]| into the
// standard deviation of Gaussian noise: 1 / (0.6745 * sqrt(6)).
const noiseFactor = 0.6052697

// EstimateNoise returns the background noise of a tile with the given row
// width, from the median absolute second-order difference of pixels two
// apart. Rows are estimated independently and the median row value is
// returned, so gradients and a few bright sources do not inflate it.
// Non-finite pixels are skipped. It returns 0 when there is not enough data.
func EstimateNoise[T float32 | float64](data []T, width int) float64 {
	if width <= 0 || len(data) == 0 {
		return 0
	}

	// row and diffs each hold at most width values.
	scratch, release := pool.GetFloat64Slice(2 * width)
	defer release()
	row, diffs := scratch[:0:width], scratch[width:width]

	var rowNoise []float64
	for start := 0; start < len(data); start += width {
		row = finiteValues(row[:0], data[start:min(start+width, len(data))])
		if n, ok := rowEstimate(row, diffs[:0]); ok {
			rowNoise = append(rowNoise, n)
		}
	}

	if len(rowNoise) == 0 {
		// Narrow tiles: treat the whole tile as a single row.
		wide, releaseWide := pool.GetFloat64Slice(2 * len(data))
		defer releaseWide()
		all := finiteValues(wide[:0:len(data)], data)
		if n, ok := rowEstimate(all, wide[len(data):len(data)]); ok {
			return n
		}

		return 0
	}

	return median(rowNoise)
}

func finiteValues[T float32 | float64](dst []float64, src []T) []float64 {
	for _, v := range src {
		f := float64(v)
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			dst = append(dst, f)
		}
	}

	return dst
}

// rowEstimate appends the row differences to diffs, which must not share
// memory with row.
func rowEstimate(row, diffs []float64) (float64, bool) {
	if len(row) < minNoisePixels {
		return 0, false
	}

	for i := 2; i < len(row)-2; i++ {
		diffs = append(diffs, math.Abs(2*row[i]-row[i-2]-row[i+2]))
	}

	return noiseFactor * median(diffs), true
}

// median sorts values in place.
func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}

	return (values[n/2-1] + values[n/2]) / 2
}
