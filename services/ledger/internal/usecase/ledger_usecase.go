package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thankatech/pkg/logger"
	"thankatech/pkg/queue"
	"thankatech/services/ledger/internal/entity"
	"thankatech/services/ledger/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const balanceCacheTTL = 30 * time.Second

// ConversionResult is what a point-to-TOA conversion hands back to the
// caller: tokens generated, the balance after the conversion, and whether
// the result came from replaying a known idempotency key.
type ConversionResult struct {
	TokensGenerated int                 `json:"tokens_generated"`
	Balance         *entity.Account     `json:"balance"`
	Transaction     *entity.Transaction `json:"transaction"`
	Replayed        bool                `json:"replayed"`
}

// AppreciationResult is the outcome of a thank-you or TOA send.
type AppreciationResult struct {
	Sender      *entity.Account     `json:"sender"`
	Transaction *entity.Transaction `json:"transaction"`
}

type LedgerUseCase interface {
	GetBalance(userID string) (*entity.Account, error)
	SendThankYou(fromUserID, toUserID, message string) (*AppreciationResult, error)
	SendTokens(fromUserID, toUserID string, tokens int, dollarValue decimal.Decimal) (*AppreciationResult, error)
	RecordPurchase(userID string, tokens int, dollarValue decimal.Decimal, paymentRef string) (*AppreciationResult, error)
	ConvertPoints(userID string, pointsToConvert int, idempotencyKey string) (*ConversionResult, error)
	GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error)
}

type ledgerUseCase struct {
	ledgerRepo  persistent.LedgerRepository
	policy      entity.ConversionPolicy
	redisClient *redis.Client
	queueClient *queue.Client
	logger      *logger.Logger
}

func NewLedgerUseCase(
	ledgerRepo persistent.LedgerRepository,
	policy entity.ConversionPolicy,
	redisClient *redis.Client,
	queueClient *queue.Client,
	logger *logger.Logger,
) LedgerUseCase {
	return &ledgerUseCase{
		ledgerRepo:  ledgerRepo,
		policy:      policy,
		redisClient: redisClient,
		queueClient: queueClient,
		logger:      logger,
	}
}

func (uc *ledgerUseCase) GetBalance(userID string) (*entity.Account, error) {
	if cached := uc.cachedBalance(userID); cached != nil {
		return cached, nil
	}

	account, err := uc.ledgerRepo.GetOrCreateAccount(userID)
	if err != nil {
		uc.logger.Error("Failed to get account: %v", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	uc.cacheBalance(account)
	return account, nil
}

func (uc *ledgerUseCase) SendThankYou(fromUserID, toUserID, message string) (*AppreciationResult, error) {
	txn, err := entity.NewThankYouTransaction(fromUserID, toUserID, message)
	if err != nil {
		return nil, err
	}

	today := entity.DayKey(time.Now())
	sentToday, err := uc.ledgerRepo.CountToday(fromUserID, entity.CounterKindThankYou, today)
	if err != nil {
		uc.logger.Error("Failed to count thank-yous: %v", err)
		return nil, fmt.Errorf("failed to send thank-you: %w", err)
	}
	if sentToday >= uc.policy.ThanksDailyLimit {
		return nil, entity.ErrThanksLimitExceeded
	}

	senderAward, receiverAward := entity.AwardsFor(entity.TransactionTypeThankYou)
	balances, err := uc.ledgerRepo.ApplyTransaction(txn,
		[]persistent.BalanceDelta{
			{UserID: fromUserID, Points: senderAward},
			{UserID: toUserID, Points: receiverAward},
		},
		&persistent.CounterBump{
			UserID: fromUserID,
			Kind:   entity.CounterKindThankYou,
			Day:    today,
			Limit:  uc.policy.ThanksDailyLimit,
		},
	)
	if err != nil {
		if isUserFacing(err) {
			return nil, err
		}
		uc.logger.Error("Failed to apply thank-you: %v", err)
		return nil, fmt.Errorf("failed to send thank-you: %w", err)
	}

	uc.invalidateBalance(fromUserID, toUserID)
	uc.publishAppreciation(map[string]interface{}{
		"event":        "thank_you_received",
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
		"message":      message,
		"priority":     1,
	})

	return &AppreciationResult{Sender: balances[fromUserID], Transaction: txn}, nil
}

func (uc *ledgerUseCase) SendTokens(fromUserID, toUserID string, tokens int, dollarValue decimal.Decimal) (*AppreciationResult, error) {
	txn, err := entity.NewTokenSendTransaction(fromUserID, toUserID, tokens, dollarValue, uc.policy)
	if err != nil {
		return nil, err
	}

	// Fail fast before touching the store transaction; the atomic apply
	// re-checks under the row lock.
	sender, err := uc.ledgerRepo.GetAccount(fromUserID)
	if err != nil {
		return nil, err
	}
	if sender.TOATokens < tokens {
		return nil, entity.ErrInsufficientTokens
	}

	senderAward, receiverAward := entity.AwardsFor(entity.TransactionTypeTOASend)
	balances, err := uc.ledgerRepo.ApplyTransaction(txn,
		[]persistent.BalanceDelta{
			{UserID: fromUserID, Points: senderAward, Tokens: -tokens, SpentTokens: tokens},
			{UserID: toUserID, Points: receiverAward, Tokens: tokens},
		},
		nil,
	)
	if err != nil {
		if isUserFacing(err) {
			return nil, err
		}
		uc.logger.Error("Failed to apply token send: %v", err)
		return nil, fmt.Errorf("failed to send tokens: %w", err)
	}

	uc.invalidateBalance(fromUserID, toUserID)
	uc.publishAppreciation(map[string]interface{}{
		"event":             "toa_received",
		"from_user_id":      fromUserID,
		"to_user_id":        toUserID,
		"tokens":            tokens,
		"technician_payout": txn.TechnicianPayout.String(),
		"priority":          5,
	})

	return &AppreciationResult{Sender: balances[fromUserID], Transaction: txn}, nil
}

func (uc *ledgerUseCase) RecordPurchase(userID string, tokens int, dollarValue decimal.Decimal, paymentRef string) (*AppreciationResult, error) {
	txn, err := entity.NewTokenPurchaseTransaction(userID, tokens, dollarValue, paymentRef, uc.policy)
	if err != nil {
		return nil, err
	}

	// The payment processor already confirmed the charge; a first purchase
	// may arrive before any other account activity.
	if _, err := uc.ledgerRepo.GetOrCreateAccount(userID); err != nil {
		uc.logger.Error("Failed to get account: %v", err)
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	balances, err := uc.ledgerRepo.ApplyTransaction(txn,
		[]persistent.BalanceDelta{
			{UserID: userID, Tokens: tokens, PurchasedTokens: tokens},
		},
		nil,
	)
	if err != nil {
		if isUserFacing(err) {
			return nil, err
		}
		uc.logger.Error("Failed to apply purchase: %v", err)
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	uc.invalidateBalance(userID)
	return &AppreciationResult{Sender: balances[userID], Transaction: txn}, nil
}

func (uc *ledgerUseCase) ConvertPoints(userID string, pointsToConvert int, idempotencyKey string) (*ConversionResult, error) {
	if idempotencyKey != "" {
		if result := uc.replayConversion(userID, idempotencyKey); result != nil {
			return result, nil
		}
	}

	account, err := uc.ledgerRepo.GetAccount(userID)
	if err != nil {
		return nil, err
	}

	today := entity.DayKey(time.Now())
	conversionsToday, err := uc.ledgerRepo.CountToday(userID, entity.CounterKindConversion, today)
	if err != nil {
		uc.logger.Error("Failed to count conversions: %v", err)
		return nil, fmt.Errorf("failed to convert points: %w", err)
	}

	if err := uc.policy.ValidateConversion(pointsToConvert, account.Points, conversionsToday); err != nil {
		return nil, err
	}

	txn, err := entity.NewPointsConversionTransaction(userID, pointsToConvert, idempotencyKey, uc.policy)
	if err != nil {
		return nil, err
	}

	tokensGenerated := uc.policy.TokensFor(pointsToConvert)
	balances, err := uc.ledgerRepo.ApplyTransaction(txn,
		[]persistent.BalanceDelta{
			{UserID: userID, Points: -pointsToConvert, Tokens: tokensGenerated},
		},
		&persistent.CounterBump{
			UserID: userID,
			Kind:   entity.CounterKindConversion,
			Day:    today,
			Limit:  uc.policy.DailyLimit,
		},
	)
	if err != nil {
		// A concurrent request may have landed the same idempotency key
		// first; the unique index turns that into a recording failure.
		if idempotencyKey != "" && errors.Is(err, entity.ErrRecordingFailed) {
			if result := uc.replayConversion(userID, idempotencyKey); result != nil {
				return result, nil
			}
		}
		if isUserFacing(err) {
			return nil, err
		}
		uc.logger.Error("Failed to apply conversion: %v", err)
		return nil, fmt.Errorf("failed to convert points: %w", err)
	}

	uc.invalidateBalance(userID)
	uc.logger.Info("Converted %d points to %d tokens for user %s", pointsToConvert, tokensGenerated, userID)

	return &ConversionResult{
		TokensGenerated: tokensGenerated,
		Balance:         balances[userID],
		Transaction:     txn,
	}, nil
}

func (uc *ledgerUseCase) GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error) {
	transactions, err := uc.ledgerRepo.GetTransactions(userID, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to get transactions: %v", err)
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}

// replayConversion returns the recorded outcome of a previously applied
// conversion with the same idempotency key, or nil when none exists.
func (uc *ledgerUseCase) replayConversion(userID, idempotencyKey string) *ConversionResult {
	prior, err := uc.ledgerRepo.FindByIdempotencyKey(idempotencyKey)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			uc.logger.Error("Failed idempotency lookup: %v", err)
		}
		return nil
	}
	if prior.FromUserID != userID {
		return nil
	}

	account, err := uc.ledgerRepo.GetAccount(userID)
	if err != nil {
		return nil
	}
	return &ConversionResult{
		TokensGenerated: prior.Tokens,
		Balance:         account,
		Transaction:     prior,
		Replayed:        true,
	}
}

func (uc *ledgerUseCase) publishAppreciation(task map[string]interface{}) {
	if uc.queueClient == nil {
		return
	}
	if err := uc.queueClient.PublishAppreciationTask(task); err != nil {
		uc.logger.Error("Failed to publish appreciation task: %v", err)
	}
}

func (uc *ledgerUseCase) cachedBalance(userID string) *entity.Account {
	if uc.redisClient == nil {
		return nil
	}
	data, err := uc.redisClient.Get(context.Background(), balanceKey(userID)).Result()
	if err != nil {
		return nil
	}
	var account entity.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil
	}
	return &account
}

func (uc *ledgerUseCase) cacheBalance(account *entity.Account) {
	if uc.redisClient == nil {
		return
	}
	data, err := json.Marshal(account)
	if err != nil {
		return
	}
	uc.redisClient.Set(context.Background(), balanceKey(account.UserID), data, balanceCacheTTL)
}

func (uc *ledgerUseCase) invalidateBalance(userIDs ...string) {
	if uc.redisClient == nil {
		return
	}
	for _, userID := range userIDs {
		uc.redisClient.Del(context.Background(), balanceKey(userID))
	}
}

func balanceKey(userID string) string {
	return fmt.Sprintf("balance:%s", userID)
}

// isUserFacing reports whether the error is a validation rejection the
// handler should surface verbatim rather than a store failure.
func isUserFacing(err error) bool {
	return errors.Is(err, entity.ErrAccountNotFound) ||
		errors.Is(err, entity.ErrBelowMinimum) ||
		errors.Is(err, entity.ErrNotDivisible) ||
		errors.Is(err, entity.ErrInsufficientPoints) ||
		errors.Is(err, entity.ErrInsufficientTokens) ||
		errors.Is(err, entity.ErrDailyLimitExceeded) ||
		errors.Is(err, entity.ErrThanksLimitExceeded) ||
		errors.Is(err, entity.ErrSelfAppreciation) ||
		errors.Is(err, entity.ErrInvalidTransaction)
}
