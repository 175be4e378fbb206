// Package stats provides statistics that aggregate event samples within a
// replica and summarize them across replicas.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the confidence level of the intervals reported by the
// statistics unless set otherwise.
const DefaultConfidence = 0.95

// Summary holds the cross-replica results of a statistic.
type Summary struct {
	Name       string
	Runs       int
	Mean       float64
	StdDev     float64
	Confidence float64
	Low        float64
	High       float64
}

// HalfWidth returns half the width of the confidence interval.
func (s Summary) HalfWidth() float64 {
	return (s.High - s.Low) / 2
}

// Summarize computes the mean, the sample standard deviation, and the
// Student-t confidence interval of the mean of values. With fewer than two
// values the interval collapses on the mean.
func Summarize(name string, values []float64, confidence float64) Summary {
	s := Summary{
		Name:       name,
		Runs:       len(values),
		Confidence: confidence,
	}

	if len(values) == 0 {
		return s
	}

	s.Mean, _ = mstats.Mean(values)
	s.Low, s.High = s.Mean, s.Mean

	if len(values) < 2 {
		return s
	}

	s.StdDev, _ = mstats.StandardDeviationSample(values)

	t := distuv.StudentsT{
		Mu:    0,
		Sigma: 1,
		Nu:    float64(len(values) - 1),
	}.Quantile(1 - (1-confidence)/2)

	half := t * s.StdDev / math.Sqrt(float64(len(values)))
	s.Low = s.Mean - half
	s.High = s.Mean + half

	return s
}
