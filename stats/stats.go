// Package stats keeps running statistics over autoplay results.
package stats

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic accumulates a stream of values in constant space using
// Welford's algorithm.
type Statistic struct {
	n    int
	last float64
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	if s.n == 1 {
		s.mean, s.m2 = val, 0
		s.min, s.max = val, val
		return
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	s.min = min(s.min, val)
	s.max = max(s.max, val)
}

// Merge folds another statistic into s, as if every value pushed to o had
// been pushed to s. Last is left unchanged.
func (s *Statistic) Merge(o *Statistic) {
	if o.n == 0 {
		return
	}
	if s.n == 0 {
		last := s.last
		*s = *o
		s.last = last
		return
	}
	n := s.n + o.n
	delta := o.mean - s.mean
	s.m2 += o.m2 + delta*delta*float64(s.n)*float64(o.n)/float64(n)
	s.mean += delta * float64(o.n) / float64(n)
	s.min = min(s.min, o.min)
	s.max = max(s.max, o.max)
	s.n = n
}

func (s *Statistic) Mean() float64 {
	if s.n > 0 {
		return s.mean
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64   { return s.last }
func (s *Statistic) Min() float64    { return s.min }
func (s *Statistic) Max() float64    { return s.max }
func (s *Statistic) Iterations() int { return s.n }

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

// ConfidenceInterval returns the bounds of the two-tailed interval around the
// mean at the given confidence (0 to 100 percent).
func (s *Statistic) ConfidenceInterval(confidence float64) (float64, float64) {
	half := ZVal(confidence) * s.StandardError()
	return s.Mean() - half, s.Mean() + half
}

func (s *Statistic) String() string {
	return fmt.Sprintf("n=%d mean=%.2f sd=%.2f min=%.0f max=%.0f", s.n, s.Mean(),
		s.Stdev(), s.min, s.max)
}

// Quantiles returns the empirical quantiles of data at each p in ps. data is
// not modified.
func Quantiles(data []float64, ps ...float64) []float64 {
	if len(data) == 0 {
		return make([]float64, len(ps))
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	return out
}
