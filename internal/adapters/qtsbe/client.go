package qtsbe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
)

// Client implements ports.PriceSeriesProvider against a QTSBE-style HTTP API.
// The API serves one JSON document per pair with daily (date, price) samples;
// prices may arrive as formatted strings with thousands separators.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the QTSBE client.
type Config struct {
	BaseURL    string
	Logger     ports.Logger
	HTTPClient *http.Client // optional, defaults to a client with a 30s timeout
}

// New creates a QTSBE price series client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for QTSBE client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for QTSBE client")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// seriesResponse is the wire shape of a QTSBE series document.
type seriesResponse struct {
	Pair string `json:"pair"`
	Data []struct {
		Date  string     `json:"date"`
		Price priceValue `json:"price"`
	} `json:"data"`
}

// priceValue accepts both JSON numbers and formatted strings ("1,234.56").
type priceValue float64

func (p *priceValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("unparsable price %q: %w", s, err)
		}
		*p = priceValue(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = priceValue(v)
	return nil
}

// Series fetches the pair's daily samples within [start, end].
func (c *Client) Series(ctx context.Context, pair string, start, end time.Time) (domain.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/QTSBE/%s/series?start_ts=%s&end_ts=%s",
		c.baseURL,
		url.PathEscape(pair),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pair, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request for %s failed: %w", pair, ports.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request for %s returned status %d: %w", pair, resp.StatusCode, ports.ErrUpstreamUnavailable)
	}

	var payload seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode series for %s: %w", pair, err)
	}

	series := make(domain.PriceSeries, 0, len(payload.Data))
	for _, sample := range payload.Data {
		date, err := time.Parse("2006-01-02", sample.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sample date %q for %s: %w", sample.Date, pair, err)
		}
		series = append(series, domain.PricePoint{Date: domain.Day(date), Price: float64(sample.Price)})
	}

	c.logger.Debug(ctx, "Fetched price series", map[string]interface{}{"pair": pair, "samples": len(series)})
	return series, nil
}
