package entity

import (
	"github.com/shopspring/decimal"

	"thankatech/pkg/config"
)

// Point awards per event. Fixed amounts, independent of token quantity.
const (
	ThankYouReceiverAward  = 1
	TokenSendSenderAward   = 1
	TokenSendReceiverAward = 2
)

// ConversionPolicy carries the fixed economic constants. They live in
// configuration but the defaults are the product's contract.
type ConversionPolicy struct {
	Rate               int // points per token
	Minimum            int // smallest convertible amount
	DailyLimit         int // conversions per user per UTC day
	ThanksDailyLimit   int // free thank-yous per user per UTC day
	PlatformFeePercent int64
	ProcessingFee      decimal.Decimal // flat per-transaction fee, dollars
}

func DefaultPolicy() ConversionPolicy {
	return ConversionPolicy{
		Rate:               5,
		Minimum:            5,
		DailyLimit:         20,
		ThanksDailyLimit:   3,
		PlatformFeePercent: 15,
		ProcessingFee:      decimal.New(99, -2),
	}
}

func PolicyFromConfig(cfg *config.Config) ConversionPolicy {
	return ConversionPolicy{
		Rate:               cfg.ConversionRate,
		Minimum:            cfg.MinimumConversion,
		DailyLimit:         cfg.DailyConversionLimit,
		ThanksDailyLimit:   cfg.DailyThanksLimit,
		PlatformFeePercent: int64(cfg.PlatformFeePercent),
		ProcessingFee:      decimal.New(cfg.ProcessingFeeCents, -2),
	}
}

// ValidateConversion runs the Conversion Engine preconditions in order;
// the first failure wins. No side effects on rejection.
func (p ConversionPolicy) ValidateConversion(pointsToConvert, currentPoints, conversionsToday int) error {
	if pointsToConvert < p.Minimum {
		return ErrBelowMinimum
	}
	if pointsToConvert%p.Rate != 0 {
		return ErrNotDivisible
	}
	if pointsToConvert > currentPoints {
		return ErrInsufficientPoints
	}
	if conversionsToday >= p.DailyLimit {
		return ErrDailyLimitExceeded
	}
	return nil
}

// TokensFor returns the TOA tokens generated by converting the given
// points. Callers must have validated divisibility first.
func (p ConversionPolicy) TokensFor(points int) int {
	return points / p.Rate
}

// AwardsFor returns the fixed sender/receiver point awards for an
// appreciation event type. Zero for non-appreciation types.
func AwardsFor(t TransactionType) (sender, receiver int) {
	switch t {
	case TransactionTypeThankYou:
		return 0, ThankYouReceiverAward
	case TransactionTypeTOASend:
		return TokenSendSenderAward, TokenSendReceiverAward
	default:
		return 0, 0
	}
}
