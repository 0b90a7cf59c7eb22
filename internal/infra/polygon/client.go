package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

// Client wraps the Polygon v3 reference API for ticker search and
// company overviews.
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

type searchResponse struct {
	Status  string              `json:"status"`
	Results []domain.TickerInfo `json:"results"`
}

type overviewResponse struct {
	Status  string                 `json:"status"`
	Results *domain.TickerOverview `json:"results"`
}

func (c *Client) SearchTickers(ctx context.Context, search string, limit int) ([]domain.TickerInfo, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("search", search)
	params.Set("limit", strconv.Itoa(limit))

	var payload searchResponse
	if err := c.get(ctx, c.baseURL+"/v3/reference/tickers?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, fmt.Errorf("polygon returned status=%s", payload.Status)
	}
	return payload.Results, nil
}

func (c *Client) GetTickerOverview(ctx context.Context, symbol string) (*domain.TickerOverview, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/v3/reference/tickers/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var payload overviewResponse
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" || payload.Results == nil {
		return nil, fmt.Errorf("polygon returned status=%s", payload.Status)
	}
	return payload.Results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("polygon request failed", zap.Error(err))
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("polygon error: status %d", response.StatusCode)
	}

	return json.NewDecoder(response.Body).Decode(out)
}
