package entropy

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// DefaultHighThreshold is the block score at or above which a block is
// treated as compressed or encrypted. Plain text and machine code rarely
// exceed 6.5; compressed and encrypted data sits just under 8.0.
const DefaultHighThreshold = 7.5

// Summary describes the distribution of an entropy series.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Summarize computes descriptive statistics over series.
// An empty series yields a zero Summary.
func Summarize(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, nil
	}

	data := stats.Float64Data(series)
	var (
		s   Summary
		err error
	)
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, fmt.Errorf("failed to compute minimum: %w", err)
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, fmt.Errorf("failed to compute maximum: %w", err)
	}
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	if s.Median, err = data.Median(); err != nil {
		return Summary{}, fmt.Errorf("failed to compute median: %w", err)
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, fmt.Errorf("failed to compute standard deviation: %w", err)
	}
	return s, nil
}

// Region is a run of consecutive high-entropy blocks, as the half-open
// byte range [Start, End) of the buffer the series was computed from.
type Region struct {
	Start int
	End   int

	// Mean is the average block score over the run.
	Mean float64
}

// Len returns the number of bytes covered by the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// HighEntropyRegions returns the maximal runs of blocks in series whose
// score is at or above threshold. blockSize and dataLen must be the values
// the series was computed with; dataLen bounds the last region when the
// final block is short.
func HighEntropyRegions(series []float64, blockSize, dataLen int, threshold float64) []Region {
	if blockSize <= 0 {
		return nil
	}

	var regions []Region
	runStart := -1
	flush := func(endBlock int) {
		scores := stats.Float64Data(series[runStart:endBlock])
		mean, _ := scores.Mean() // never empty here
		regions = append(regions, Region{
			Start: runStart * blockSize,
			End:   min(endBlock*blockSize, dataLen),
			Mean:  mean,
		})
		runStart = -1
	}

	for i, score := range series {
		if score >= threshold {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			flush(i)
		}
	}
	if runStart >= 0 {
		flush(len(series))
	}
	return regions
}
