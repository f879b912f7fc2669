package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"smartswapSimulator/internal/domain"
)

const dateLayout = "2006-01-02"

// WriteSeriesToCSV exports a daily price series, one row per date.
func WriteSeriesToCSV(pair string, series domain.PriceSeries, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"pair", "date", "price"})

	for _, point := range series {
		writer.Write([]string{
			pair,
			point.Date.Format(dateLayout),
			strconv.FormatFloat(point.Price, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// WritePositionsToCSV exports a simulation's positions, one row each.
// Sell columns are empty for positions still open.
func WritePositionsToCSV(positions []*domain.Position, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"simulation", "pair", "fund_slot", "buy_date", "buy_price", "buy_signal", "sell_date", "sell_price", "sell_signal", "duration_days", "ratio"})

	for _, p := range positions {
		sellDate, sellPrice, sellSignal, duration, ratio := "", "", "", "", ""
		if !p.IsOpen() {
			sellDate = p.SellDate.Format(dateLayout)
			sellPrice = strconv.FormatFloat(*p.SellPrice, 'f', -1, 64)
			sellSignal = *p.SellSignal
			duration = strconv.Itoa(p.Duration)
			ratio = strconv.FormatFloat(p.Ratio, 'f', -1, 64)
		}
		writer.Write([]string{
			p.SimulationName,
			p.Pair,
			strconv.Itoa(p.FundSlot),
			p.BuyDate.Format(dateLayout),
			strconv.FormatFloat(p.BuyPrice, 'f', -1, 64),
			p.BuySignal,
			sellDate,
			sellPrice,
			sellSignal,
			duration,
			ratio,
		})
	}
	return writer.Error()
}
