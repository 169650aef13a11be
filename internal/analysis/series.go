// Package analysis computes summary statistics and moving averages over a
// fetched price series.
package analysis

import (
	"math"
	"slices"
	"time"

	"github.com/seenimoa/oilprice/pkg/models"
)

// Summary describes a price series between its first and last observation.
type Summary struct {
	Count     int       `json:"count"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	First     float64   `json:"first"`
	Last      float64   `json:"last"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`    // population
	Change    float64   `json:"change"`     // Last - First
	ChangePct float64   `json:"change_pct"` // 0 when First is 0
}

// Sorted returns a copy of prices ordered by date, oldest first.
func Sorted(prices []models.HistoricalPrice) []models.HistoricalPrice {
	out := slices.Clone(prices)
	slices.SortStableFunc(out, func(a, b models.HistoricalPrice) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// Values extracts the values of prices in date order.
func Values(prices []models.HistoricalPrice) []float64 {
	sorted := Sorted(prices)
	vals := make([]float64, len(sorted))
	for i, p := range sorted {
		vals[i] = p.Value
	}
	return vals
}

// Summarize computes a Summary of prices. An empty series yields the zero
// Summary.
func Summarize(prices []models.HistoricalPrice) Summary {
	if len(prices) == 0 {
		return Summary{}
	}
	sorted := Sorted(prices)

	s := Summary{
		Count: len(sorted),
		From:  sorted[0].Date,
		To:    sorted[len(sorted)-1].Date,
		First: sorted[0].Value,
		Last:  sorted[len(sorted)-1].Value,
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	sum := 0.0
	for _, p := range sorted {
		sum += p.Value
		s.Min = min(s.Min, p.Value)
		s.Max = max(s.Max, p.Value)
	}
	s.Mean = sum / float64(s.Count)

	variance := 0.0
	for _, p := range sorted {
		d := p.Value - s.Mean
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / float64(s.Count))

	s.Change = s.Last - s.First
	if s.First != 0 {
		s.ChangePct = s.Change / s.First * 100
	}
	return s
}

// SMA calculates Simple Moving Average for the given period.
// Indexes before period-1 are zero.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates Exponential Moving Average seeded with the SMA of the
// first period values.
func EMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	ema := make([]float64, n)
	k := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		ema[i] = data[i]*k + ema[i-1]*(1-k)
	}

	return ema
}

// Latest returns the last value of a moving-average series, or 0.
func Latest(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}

// MultiSMA computes the latest SMA for several periods. Periods longer
// than the series are omitted.
func MultiSMA(data []float64, periods []int) map[int]float64 {
	result := make(map[int]float64, len(periods))
	for _, p := range periods {
		if vals := SMA(data, p); vals != nil {
			result[p] = Latest(vals)
		}
	}
	return result
}

// StandardPeriods are the moving-average windows reported by default, in
// observations.
var StandardPeriods = []int{5, 20, 50, 200}
