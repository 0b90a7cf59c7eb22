package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

const maxOutputSize = 1000

// Client fetches intraday time series from the Twelve Data API and maps
// them onto domain.PriceSeries. An upstream "error" status or an empty
// result set becomes SeriesNoData, not an error.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type timeSeriesBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type timeSeriesBody struct {
	Status string          `json:"status"`
	Values []timeSeriesBar `json:"values"`
}

type timeSeriesResponse struct {
	timeSeriesBody
	Data *timeSeriesBody `json:"data"`
}

func (c *Client) GetChart(ctx context.Context, symbol, date string, interval domain.Interval) (*domain.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/time_series", c.baseURL)

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", string(interval))
	params.Set("outputsize", fmt.Sprintf("%d", maxOutputSize))
	params.Set("format", "JSON")
	params.Set("apikey", c.apiKey)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("twelvedata request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug(
		"twelvedata request complete",
		zap.String("symbol", symbol),
		zap.String("date", date),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("twelvedata error: status %d", response.StatusCode)
	}

	var payload timeSeriesResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, err
	}

	status := payload.Status
	values := payload.Values
	if payload.Data != nil {
		if status == "" {
			status = payload.Data.Status
		}
		if values == nil {
			values = payload.Data.Values
		}
	}

	if status == "error" || values == nil {
		return &domain.PriceSeries{Status: domain.SeriesNoData}, nil
	}

	samples := make([]domain.PriceSample, 0, len(values))
	for _, bar := range values {
		if !strings.HasPrefix(bar.Datetime, date) {
			continue
		}
		sample, err := mapBarToSample(bar)
		if err != nil {
			c.logger.Warn("skipping malformed bar", zap.String("symbol", symbol), zap.String("datetime", bar.Datetime), zap.Error(err))
			continue
		}
		samples = append(samples, sample)
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	samples = dedupeByTimestamp(samples)

	if len(samples) == 0 {
		return &domain.PriceSeries{Status: domain.SeriesNoData}, nil
	}

	return &domain.PriceSeries{Status: domain.SeriesOK, Samples: samples}, nil
}

func mapBarToSample(bar timeSeriesBar) (domain.PriceSample, error) {
	ts, err := parseBarTime(bar.Datetime)
	if err != nil {
		return domain.PriceSample{}, err
	}

	fields := [5]string{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume}
	var parsed [5]decimal.Decimal
	for i, raw := range fields {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.PriceSample{}, fmt.Errorf("parse bar field %q: %w", raw, err)
		}
		parsed[i] = value
	}

	return domain.PriceSample{
		Timestamp: ts,
		Open:      parsed[0],
		High:      parsed[1],
		Low:       parsed[2],
		Close:     parsed[3],
		Volume:    parsed[4],
	}, nil
}

func parseBarTime(raw string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

func dedupeByTimestamp(samples []domain.PriceSample) []domain.PriceSample {
	deduped := make([]domain.PriceSample, 0, len(samples))
	for _, sample := range samples {
		if n := len(deduped); n > 0 && sample.Timestamp.Equal(deduped[n-1].Timestamp) {
			continue
		}
		deduped = append(deduped, sample)
	}
	return deduped
}
