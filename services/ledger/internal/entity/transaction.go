package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeThankYou         TransactionType = "thank_you"
	TransactionTypeTOASend          TransactionType = "toa_send"
	TransactionTypeTokenPurchase    TransactionType = "token_purchase"
	TransactionTypePointsConversion TransactionType = "points_conversion"
)

// Transaction is one immutable entry in the append-only ledger. The type
// tag determines which fields are meaningful; the constructors below are
// the only way per-type required fields get populated, so a persisted
// record is valid by construction.
type Transaction struct {
	ID               string          `json:"id"`
	FromUserID       string          `json:"from_user_id,omitempty"`
	ToUserID         string          `json:"to_user_id,omitempty"`
	Type             TransactionType `json:"type"`
	Tokens           int             `json:"tokens"`
	DollarValue      decimal.Decimal `json:"dollar_value"`
	TechnicianPayout decimal.Decimal `json:"technician_payout"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
	PointsAwarded    int             `json:"points_awarded"`
	Message          string          `json:"message,omitempty"`
	PaymentRef       string          `json:"payment_ref,omitempty"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewThankYouTransaction records a free thank-you. No money, no tokens;
// the receiver earns a fixed point award.
func NewThankYouTransaction(fromUserID, toUserID, message string) (*Transaction, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, fmt.Errorf("%w: thank_you requires sender and receiver", ErrInvalidTransaction)
	}
	if fromUserID == toUserID {
		return nil, ErrSelfAppreciation
	}
	return &Transaction{
		FromUserID:       fromUserID,
		ToUserID:         toUserID,
		Type:             TransactionTypeThankYou,
		DollarValue:      decimal.Zero,
		TechnicianPayout: decimal.Zero,
		PlatformFee:      decimal.Zero,
		PointsAwarded:    ThankYouReceiverAward,
		Message:          message,
	}, nil
}

// NewTokenSendTransaction records a TOA transfer. The dollar value is what
// the payment layer confirmed for this send; zero for a pure token
// transfer. The fee split is computed here so payout + fee == value holds
// for every persisted record.
func NewTokenSendTransaction(fromUserID, toUserID string, tokens int, dollarValue decimal.Decimal, policy ConversionPolicy) (*Transaction, error) {
	if fromUserID == "" || toUserID == "" {
		return nil, fmt.Errorf("%w: toa_send requires sender and receiver", ErrInvalidTransaction)
	}
	if fromUserID == toUserID {
		return nil, ErrSelfAppreciation
	}
	if tokens <= 0 {
		return nil, fmt.Errorf("%w: toa_send requires a positive token amount", ErrInvalidTransaction)
	}
	if dollarValue.IsNegative() {
		return nil, fmt.Errorf("%w: dollar value cannot be negative", ErrInvalidTransaction)
	}
	split := policy.SplitFee(dollarValue)
	return &Transaction{
		FromUserID:       fromUserID,
		ToUserID:         toUserID,
		Type:             TransactionTypeTOASend,
		Tokens:           tokens,
		DollarValue:      dollarValue,
		TechnicianPayout: split.TechnicianPayout,
		PlatformFee:      split.PlatformFee,
		PointsAwarded:    TokenSendSenderAward + TokenSendReceiverAward,
	}, nil
}

// NewTokenPurchaseTransaction records a payment-processor-confirmed token
// purchase. The flat processing fee is layered under the percentage split;
// the record's platform fee absorbs both so the sum stays exact.
func NewTokenPurchaseTransaction(userID string, tokens int, dollarValue decimal.Decimal, paymentRef string, policy ConversionPolicy) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: token_purchase requires a buyer", ErrInvalidTransaction)
	}
	if tokens <= 0 {
		return nil, fmt.Errorf("%w: token_purchase requires a positive token amount", ErrInvalidTransaction)
	}
	if dollarValue.IsNegative() || dollarValue.IsZero() {
		return nil, fmt.Errorf("%w: token_purchase requires a positive dollar value", ErrInvalidTransaction)
	}
	split := policy.SplitSettlement(dollarValue)
	return &Transaction{
		ToUserID:         userID,
		Type:             TransactionTypeTokenPurchase,
		Tokens:           tokens,
		DollarValue:      dollarValue,
		TechnicianPayout: split.TechnicianPayout,
		PlatformFee:      split.PlatformFee,
		PaymentRef:       paymentRef,
	}, nil
}

// NewPointsConversionTransaction records a point-to-TOA conversion.
// PointsAwarded is negative: the conversion spends points.
func NewPointsConversionTransaction(userID string, pointsToConvert int, idempotencyKey string, policy ConversionPolicy) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: points_conversion requires a user", ErrInvalidTransaction)
	}
	if pointsToConvert <= 0 || pointsToConvert%policy.Rate != 0 {
		return nil, fmt.Errorf("%w: points must be a positive multiple of %d", ErrInvalidTransaction, policy.Rate)
	}
	return &Transaction{
		FromUserID:       userID,
		Type:             TransactionTypePointsConversion,
		Tokens:           policy.TokensFor(pointsToConvert),
		DollarValue:      decimal.Zero,
		TechnicianPayout: decimal.Zero,
		PlatformFee:      decimal.Zero,
		PointsAwarded:    -pointsToConvert,
		IdempotencyKey:   idempotencyKey,
	}, nil
}
