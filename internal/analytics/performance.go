package analytics

import (
	"sort"
	"time"

	"smartswapSimulator/internal/domain"
)

// PerformanceMetrics summarises the outcome of a simulation's positions.
// Ratios above 1.0 count as wins; open positions carry no ratio and are
// tallied separately.
type PerformanceMetrics struct {
	TotalPositions  int
	OpenPositions   int
	ClosedPositions int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	AverageRatio    float64
	BestRatio       float64
	WorstRatio      float64
	CompoundRatio   float64
	AverageDuration float64 // whole days
	MonthlyRatios   map[string]float64
	PairCounts      map[string]int
}

// AnalyzePerformance computes summary metrics from a simulation's positions.
func AnalyzePerformance(positions []*domain.Position) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		CompoundRatio: 1.0,
		MonthlyRatios: make(map[string]float64),
		PairCounts:    make(map[string]int),
	}

	if len(positions) == 0 {
		return metrics
	}

	sorted := make([]*domain.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BuyDate.Before(sorted[j].BuyDate)
	})

	var ratioSum float64
	var durationSum int

	for _, pos := range sorted {
		metrics.TotalPositions++
		metrics.PairCounts[pos.Pair]++

		if pos.IsOpen() {
			metrics.OpenPositions++
			continue
		}
		metrics.ClosedPositions++

		if pos.Ratio > 1.0 {
			metrics.WinningTrades++
		} else {
			metrics.LosingTrades++
		}
		ratioSum += pos.Ratio
		durationSum += pos.Duration
		metrics.CompoundRatio *= pos.Ratio

		if pos.Ratio > metrics.BestRatio {
			metrics.BestRatio = pos.Ratio
		}
		if metrics.WorstRatio == 0 || pos.Ratio < metrics.WorstRatio {
			metrics.WorstRatio = pos.Ratio
		}

		// Each month accumulates the compounded ratio of its closes.
		monthKey := pos.SellDate.Format("2006-01")
		if _, ok := metrics.MonthlyRatios[monthKey]; !ok {
			metrics.MonthlyRatios[monthKey] = 1.0
		}
		metrics.MonthlyRatios[monthKey] *= pos.Ratio
	}

	if metrics.ClosedPositions > 0 {
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.ClosedPositions)
		metrics.AverageRatio = ratioSum / float64(metrics.ClosedPositions)
		metrics.AverageDuration = float64(durationSum) / float64(metrics.ClosedPositions)
	} else {
		metrics.CompoundRatio = 1.0
	}

	return metrics
}

// GetMonthlyRatios returns the compounded monthly ratios as a sorted slice.
func (m *PerformanceMetrics) GetMonthlyRatios() []MonthlyRatio {
	ratios := make([]MonthlyRatio, 0, len(m.MonthlyRatios))
	for month, ratio := range m.MonthlyRatios {
		date, _ := time.Parse("2006-01", month)
		ratios = append(ratios, MonthlyRatio{
			Month: date,
			Ratio: ratio,
		})
	}
	sort.Slice(ratios, func(i, j int) bool {
		return ratios[i].Month.Before(ratios[j].Month)
	})
	return ratios
}

// MonthlyRatio is the compounded close ratio of a calendar month.
type MonthlyRatio struct {
	Month time.Time
	Ratio float64
}
