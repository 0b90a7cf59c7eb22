package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrRateLimited = errors.New("upstream rate limit exceeded")

type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval1Hour Interval = "1h"
)

func (i Interval) Valid() bool {
	switch i {
	case Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval1Hour:
		return true
	}
	return false
}

type SeriesStatus string

const (
	SeriesOK     SeriesStatus = "ok"
	SeriesNoData SeriesStatus = "no_data"
)

type PriceSample struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// PriceSeries holds the samples for one ticker on one calendar date,
// ordered by timestamp ascending with duplicate timestamps removed.
type PriceSeries struct {
	Status  SeriesStatus
	Samples []PriceSample
}

// LatestClose returns the close of the last sample. The second return is
// false when the series carries no usable data.
func (s *PriceSeries) LatestClose() (decimal.Decimal, bool) {
	if s == nil || s.Status != SeriesOK || len(s.Samples) == 0 {
		return decimal.Decimal{}, false
	}
	return s.Samples[len(s.Samples)-1].Close, true
}

// ChartProvider fetches intraday bars for a symbol on a calendar date
// (YYYY-MM-DD). Implementations report absent data via SeriesNoData and
// return an error only on transport or upstream failure.
type ChartProvider interface {
	GetChart(ctx context.Context, symbol, date string, interval Interval) (*PriceSeries, error)
}

type TickerInfo struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Active          bool   `json:"active"`
}

type TickerBranding struct {
	LogoURL string `json:"logo_url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type TickerOverview struct {
	Ticker          string          `json:"ticker"`
	Name            string          `json:"name"`
	Market          string          `json:"market"`
	Locale          string          `json:"locale"`
	PrimaryExchange string          `json:"primary_exchange"`
	Status          string          `json:"status,omitempty"`
	Description     string          `json:"description,omitempty"`
	HomepageURL     string          `json:"homepage_url,omitempty"`
	ListDate        string          `json:"list_date,omitempty"`
	MarketCap       float64         `json:"market_cap,omitempty"`
	Branding        *TickerBranding `json:"branding,omitempty"`
}

// ReferenceClient exposes ticker search and company overview lookups.
type ReferenceClient interface {
	SearchTickers(ctx context.Context, search string, limit int) ([]TickerInfo, error)
	GetTickerOverview(ctx context.Context, symbol string) (*TickerOverview, error)
}
