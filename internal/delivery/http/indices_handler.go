package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// GET /indices/tickers?search=SP&limit=10
func (s *Server) searchTickers(c *gin.Context) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed > maxSearchLimit {
			parsed = maxSearchLimit
		}
		limit = parsed
	}

	tickers, err := s.indices.SearchTickers(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "upstream rate limit exceeded"})
			return
		}
		s.logger.Error("ticker search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "ticker search failed"})
		return
	}

	c.JSON(http.StatusOK, tickers)
}

// GET /indices/:symbol/chart?date=YYYY-MM-DD&interval=5min
func (s *Server) getChart(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter date is required"})
		return
	}

	series, err := s.indices.GetChart(c.Request.Context(), c.Param("symbol"), date, chartInterval(c))
	if err != nil {
		s.logger.Error("chart fetch failed", zap.String("symbol", c.Param("symbol")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "chart fetch failed"})
		return
	}

	c.JSON(http.StatusOK, mapSeriesResponse(series))
}

// GET /indices/:symbol/details?date=YYYY-MM-DD&interval=5min
func (s *Server) getDetails(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter date is required"})
		return
	}

	details, err := s.indices.GetDetails(c.Request.Context(), c.Param("symbol"), date, chartInterval(c))
	if err != nil {
		s.logger.Error("details fetch failed", zap.String("symbol", c.Param("symbol")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "details fetch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"overview": details.Overview,
		"chart":    mapSeriesResponse(details.Chart),
	})
}

func chartInterval(c *gin.Context) domain.Interval {
	interval := domain.Interval(c.Query("interval"))
	if !interval.Valid() {
		return domain.Interval1Hour
	}
	return interval
}

// seriesResponse mirrors the parallel-array candle payload the dashboard
// frontend consumes.
type seriesResponse struct {
	T []int64  `json:"t"`
	O []string `json:"o"`
	H []string `json:"h"`
	L []string `json:"l"`
	C []string `json:"c"`
	V []string `json:"v"`
	S string   `json:"s"`
}

func mapSeriesResponse(series *domain.PriceSeries) seriesResponse {
	out := seriesResponse{
		T: make([]int64, 0, len(series.Samples)),
		O: make([]string, 0, len(series.Samples)),
		H: make([]string, 0, len(series.Samples)),
		L: make([]string, 0, len(series.Samples)),
		C: make([]string, 0, len(series.Samples)),
		V: make([]string, 0, len(series.Samples)),
		S: string(series.Status),
	}
	for _, sample := range series.Samples {
		out.T = append(out.T, sample.Timestamp.UnixMilli())
		out.O = append(out.O, sample.Open.String())
		out.H = append(out.H, sample.High.String())
		out.L = append(out.L, sample.Low.String())
		out.C = append(out.C, sample.Close.String())
		out.V = append(out.V, sample.Volume.String())
	}
	return out
}
