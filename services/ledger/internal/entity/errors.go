package entity

import "errors"

var (
	// ErrAccountNotFound means the referenced user has no balance record.
	ErrAccountNotFound = errors.New("account not found")

	// Conversion Engine validation failures, surfaced to the user as-is.
	ErrBelowMinimum       = errors.New("points below minimum conversion")
	ErrNotDivisible       = errors.New("points not divisible by conversion rate")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrDailyLimitExceeded = errors.New("daily conversion limit reached")

	// ErrInsufficientTokens guards TOA sends against negative balances.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrThanksLimitExceeded caps free thank-yous per day. Independent of
	// the conversion limit.
	ErrThanksLimitExceeded = errors.New("daily thank-you limit reached")

	// ErrSelfAppreciation rejects sending thanks or tokens to yourself.
	ErrSelfAppreciation = errors.New("cannot send appreciation to yourself")

	// ErrRecordingFailed means the transaction-log write failed. Balance
	// mutations and the record are one atomic unit, so nothing is applied.
	ErrRecordingFailed = errors.New("failed to record transaction")

	// ErrStoreUnavailable is transient. Callers should re-read state before
	// retrying writes, since writes are not idempotent.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrInvalidTransaction rejects malformed records at construction.
	ErrInvalidTransaction = errors.New("invalid transaction")
)
