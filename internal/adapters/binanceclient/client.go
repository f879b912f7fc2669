package binanceclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"

	"github.com/adshao/go-binance/v2"
)

const klineBatchLimit = 1000 // Binance's maximum klines per request

// Client implements ports.PriceSeriesProvider using Binance daily klines.
// Public kline endpoints work without API keys.
type Client struct {
	spot   *binance.Client
	logger ports.Logger
}

// Config holds configuration specific to the Binance adapter.
type Config struct {
	APIKey    string
	SecretKey string
	Logger    ports.Logger
}

// New creates a new Binance price series adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	return &Client{
		spot:   binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger: cfg.Logger,
	}, nil
}

// Series fetches the pair's daily closing prices within [start, end],
// paging through the klines endpoint in batches.
func (c *Client) Series(ctx context.Context, pair string, start, end time.Time) (domain.PriceSeries, error) {
	symbol := strings.ReplaceAll(strings.ToUpper(pair), "/", "")
	startMs := domain.Day(start).UnixMilli()
	endMs := domain.Day(end).AddDate(0, 0, 1).UnixMilli() - 1

	series := make(domain.PriceSeries, 0)
	for startMs <= endMs {
		klines, err := c.spot.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(startMs).
			EndTime(endMs).
			Limit(klineBatchLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch klines for %s: %w", symbol, ports.ErrUpstreamUnavailable)
		}
		if len(klines) == 0 {
			break
		}
		for _, k := range klines {
			price, err := strconv.ParseFloat(k.Close, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse close price %q for %s: %w", k.Close, symbol, err)
			}
			series = append(series, domain.PricePoint{
				Date:  domain.Day(time.UnixMilli(k.OpenTime).UTC()),
				Price: price,
			})
		}
		if len(klines) < klineBatchLimit {
			break
		}
		startMs = klines[len(klines)-1].CloseTime + 1
	}

	c.logger.Debug(ctx, "Fetched daily klines", map[string]interface{}{"symbol": symbol, "samples": len(series)})
	return series, nil
}
