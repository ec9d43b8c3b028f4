package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInsufficientOverlap reports that the series being joined share too
// few common observation dates to correlate.
var ErrInsufficientOverlap = errors.New("series share fewer than two common dates")

// Series is one named sequence of observations indexed by date.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// Column is one named value column of a Frame.
type Column struct {
	Name   string
	Values []float64
}

// Frame is a table of columns sharing one ascending date index. Only
// dates where every joined series has an observation appear in the
// index.
type Frame struct {
	Dates   []time.Time
	Columns []Column
}

// BuildFrame inner-joins the given series on their observation dates.
// Column order follows input order, and NaN observations are treated as
// missing. BuildFrame returns ErrInsufficientOverlap when fewer than
// two dates are shared by every series.
func BuildFrame(series []Series) (*Frame, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("joining 0 series: %w", ErrInsufficientOverlap)
	}

	byDate := make([]map[int64]float64, len(series))
	for i, s := range series {
		if len(s.Dates) != len(s.Values) {
			return nil, fmt.Errorf("series %q has %d dates for %d values", s.Name, len(s.Dates), len(s.Values))
		}
		m := make(map[int64]float64, len(s.Dates))
		for j, d := range s.Dates {
			if math.IsNaN(s.Values[j]) {
				continue
			}
			m[d.Unix()] = s.Values[j]
		}
		byDate[i] = m
	}

	shared := make([]int64, 0, len(byDate[0]))
	for ts := range byDate[0] {
		joined := true
		for _, m := range byDate[1:] {
			if _, ok := m[ts]; !ok {
				joined = false
				break
			}
		}
		if joined {
			shared = append(shared, ts)
		}
	}
	if len(shared) < 2 {
		return nil, fmt.Errorf("joining %d series: %w", len(series), ErrInsufficientOverlap)
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	frame := &Frame{
		Dates:   make([]time.Time, len(shared)),
		Columns: make([]Column, len(series)),
	}
	for i, ts := range shared {
		frame.Dates[i] = time.Unix(ts, 0).UTC()
	}
	for i, s := range series {
		values := make([]float64, len(shared))
		for j, ts := range shared {
			values[j] = byDate[i][ts]
		}
		frame.Columns[i] = Column{Name: s.Name, Values: values}
	}
	return frame, nil
}

// Rows returns the number of dates in the frame index.
func (f *Frame) Rows() int {
	return len(f.Dates)
}

// Pair is the correlation between two named columns.
type Pair struct {
	A string
	B string
	R float64
}

// PairwiseCorrelations computes the Pearson correlation of every
// unordered column pair. Pairs follow column order: for columns a, b, c
// the result is (a,b), (a,c), (b,c).
func (f *Frame) PairwiseCorrelations() []Pair {
	var pairs []Pair
	for i := 0; i < len(f.Columns); i++ {
		for j := i + 1; j < len(f.Columns); j++ {
			pairs = append(pairs, Pair{
				A: f.Columns[i].Name,
				B: f.Columns[j].Name,
				R: Pearson(f.Columns[i].Values, f.Columns[j].Values),
			})
		}
	}
	return pairs
}
