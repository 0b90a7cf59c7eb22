package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"stockwatch/internal/domain"
)

type IndicesUsecase struct {
	charts    domain.ChartProvider
	reference domain.ReferenceClient
	logger    *zap.Logger
}

func NewIndicesUsecase(charts domain.ChartProvider, reference domain.ReferenceClient, logger *zap.Logger) *IndicesUsecase {
	return &IndicesUsecase{charts: charts, reference: reference, logger: logger}
}

func (u *IndicesUsecase) SearchTickers(ctx context.Context, search string, limit int) ([]domain.TickerInfo, error) {
	return u.reference.SearchTickers(ctx, search, limit)
}

func (u *IndicesUsecase) GetChart(ctx context.Context, symbol, date string, interval domain.Interval) (*domain.PriceSeries, error) {
	return u.charts.GetChart(ctx, symbol, date, interval)
}

type TickerDetails struct {
	Overview *domain.TickerOverview `json:"overview"`
	Chart    *domain.PriceSeries    `json:"chart"`
}

// GetDetails fetches the company overview and the chart in parallel.
// Either half failing degrades that half (nil overview, no_data chart)
// instead of failing the whole lookup.
func (u *IndicesUsecase) GetDetails(ctx context.Context, symbol, date string, interval domain.Interval) (*TickerDetails, error) {
	var (
		wg       sync.WaitGroup
		overview *domain.TickerOverview
		chart    *domain.PriceSeries
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := u.reference.GetTickerOverview(ctx, symbol)
		if err != nil {
			u.logger.Warn("failed to fetch ticker overview", zap.String("symbol", symbol), zap.Error(err))
			return
		}
		overview = result
	}()
	go func() {
		defer wg.Done()
		result, err := u.charts.GetChart(ctx, symbol, date, interval)
		if err != nil {
			u.logger.Warn("failed to fetch chart", zap.String("symbol", symbol), zap.Error(err))
			return
		}
		chart = result
	}()
	wg.Wait()

	if chart == nil {
		chart = &domain.PriceSeries{Status: domain.SeriesNoData}
	}

	return &TickerDetails{Overview: overview, Chart: chart}, nil
}
