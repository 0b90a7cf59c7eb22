package usecase

import (
	"github.com/shopspring/decimal"

	"stockwatch/internal/domain"
)

// Breached reports whether price violates the threshold rule. The
// comparison is strict: a price exactly at the target never breaches.
func Breached(condition domain.Condition, price, target decimal.Decimal) bool {
	switch condition {
	case domain.ConditionAbove:
		return price.GreaterThan(target)
	case domain.ConditionBelow:
		return price.LessThan(target)
	}
	return false
}
