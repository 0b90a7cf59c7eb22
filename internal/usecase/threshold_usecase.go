package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"stockwatch/internal/domain"
)

var (
	ErrInvalidTicker     = errors.New("invalid ticker")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidCondition  = errors.New("invalid condition")
	ErrThresholdNotFound = errors.New("threshold not found")
)

type ThresholdUsecase struct {
	thresholds domain.ThresholdRepository
}

func NewThresholdUsecase(thresholds domain.ThresholdRepository) *ThresholdUsecase {
	return &ThresholdUsecase{thresholds: thresholds}
}

func (u *ThresholdUsecase) CreateThreshold(ctx context.Context, ownerUID, ticker, target, condition string) (*domain.Threshold, error) {
	normalizedTicker := strings.ToUpper(strings.TrimSpace(ticker))
	if normalizedTicker == "" {
		return nil, ErrInvalidTicker
	}

	decTarget, err := decimal.NewFromString(strings.TrimSpace(target))
	if err != nil || decTarget.IsNegative() {
		return nil, ErrInvalidTarget
	}

	normalizedCondition := domain.Condition(strings.ToLower(strings.TrimSpace(condition)))
	if !normalizedCondition.Valid() {
		return nil, ErrInvalidCondition
	}

	threshold := &domain.Threshold{
		OwnerUID:  ownerUID,
		Ticker:    normalizedTicker,
		Target:    decTarget.String(),
		Condition: normalizedCondition,
		Enabled:   true,
	}

	if err := u.thresholds.Create(ctx, threshold); err != nil {
		return nil, err
	}

	return threshold, nil
}

func (u *ThresholdUsecase) ListThresholds(ctx context.Context, ownerUID string) ([]domain.Threshold, error) {
	return u.thresholds.ListByOwner(ctx, ownerUID)
}

func (u *ThresholdUsecase) DeleteThreshold(ctx context.Context, ownerUID string, thresholdID uint) error {
	if err := u.thresholds.Delete(ctx, ownerUID, thresholdID); err != nil {
		if err == domain.ErrNotFound {
			return ErrThresholdNotFound
		}
		return err
	}
	return nil
}
