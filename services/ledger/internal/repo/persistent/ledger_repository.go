package persistent

import (
	"errors"
	"fmt"
	"sort"

	"thankatech/services/ledger/internal/entity"
	"thankatech/services/ledger/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceDelta is one account's share of a ledger operation. Negative
// values spend; the store rejects any delta that would leave a balance
// below zero.
type BalanceDelta struct {
	UserID          string
	Points          int
	Tokens          int
	PurchasedTokens int
	SpentTokens     int
}

// CounterBump increments a per-user per-UTC-day counter inside the same
// store transaction as the balance mutation. The increment fails when the
// counter already sits at Limit.
type CounterBump struct {
	UserID string
	Kind   entity.DailyCounterKind
	Day    string
	Limit  int
}

type LedgerRepository interface {
	GetOrCreateAccount(userID string) (*entity.Account, error)
	GetAccount(userID string) (*entity.Account, error)
	// ApplyTransaction commits balance deltas, an optional daily-counter
	// bump, and the append-only transaction record as one atomic unit.
	// Nothing is applied on any failure.
	ApplyTransaction(txn *entity.Transaction, deltas []BalanceDelta, bump *CounterBump) (map[string]*entity.Account, error)
	CountToday(userID string, kind entity.DailyCounterKind, day string) (int, error)
	FindByIdempotencyKey(key string) (*entity.Transaction, error)
	GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetOrCreateAccount(userID string) (*entity.Account, error) {
	var accountModel model.AccountModel
	if err := r.db.Where("user_id = ?", userID).First(&accountModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			accountModel = model.AccountModel{
				ID:     uuid.New().String(),
				UserID: userID,
			}
			if err := r.db.Create(&accountModel).Error; err != nil {
				return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
			}
		} else {
			return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
		}
	}
	return ToAccountEntity(&accountModel), nil
}

func (r *ledgerRepository) GetAccount(userID string) (*entity.Account, error) {
	var accountModel model.AccountModel
	if err := r.db.Where("user_id = ?", userID).First(&accountModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	return ToAccountEntity(&accountModel), nil
}

func (r *ledgerRepository) ApplyTransaction(txn *entity.Transaction, deltas []BalanceDelta, bump *CounterBump) (map[string]*entity.Account, error) {
	updated := make(map[string]*entity.Account, len(deltas))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Lock account rows in a stable order so two concurrent operations
		// touching the same pair of accounts cannot deadlock.
		ordered := make([]BalanceDelta, len(deltas))
		copy(ordered, deltas)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].UserID < ordered[j].UserID })

		accounts := make(map[string]*model.AccountModel, len(ordered))
		for _, d := range ordered {
			var accountModel model.AccountModel
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", d.UserID).First(&accountModel).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return entity.ErrAccountNotFound
				}
				return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
			}
			accounts[d.UserID] = &accountModel
		}

		for _, d := range ordered {
			account := accounts[d.UserID]
			account.Points += d.Points
			account.TOATokens += d.Tokens
			account.TotalPurchased += d.PurchasedTokens
			account.TotalSpent += d.SpentTokens
			if account.Points < 0 {
				return entity.ErrInsufficientPoints
			}
			if account.TOATokens < 0 {
				return entity.ErrInsufficientTokens
			}
		}

		if bump != nil {
			if err := r.bumpCounter(tx, bump); err != nil {
				return err
			}
		}

		transactionModel := ToTransactionModel(txn)
		if transactionModel.ID == "" {
			transactionModel.ID = uuid.New().String()
		}
		if err := tx.Create(transactionModel).Error; err != nil {
			return fmt.Errorf("%w: %v", entity.ErrRecordingFailed, err)
		}
		txn.ID = transactionModel.ID
		txn.CreatedAt = transactionModel.CreatedAt

		for _, account := range accounts {
			if err := tx.Save(account).Error; err != nil {
				return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
			}
		}

		// Snapshot the locked rows before commit; a re-read afterwards could
		// see a concurrent mutation.
		for userID, account := range accounts {
			updated[userID] = ToAccountEntity(account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ledgerRepository) bumpCounter(tx *gorm.DB, bump *CounterBump) error {
	// Upsert-then-lock: FOR UPDATE cannot lock a row that does not exist
	// yet, so two first bumps of a day would race on the unique index.
	// ON CONFLICT DO NOTHING lets the loser fall through to the locked
	// re-read instead of failing.
	seed := model.DailyCounterModel{
		ID:     uuid.New().String(),
		UserID: bump.UserID,
		Day:    bump.Day,
		Kind:   string(bump.Kind),
		Count:  0,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}

	var counter model.DailyCounterModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ? AND kind = ?", bump.UserID, bump.Day, string(bump.Kind)).
		First(&counter).Error; err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}

	if counter.Count >= bump.Limit {
		if bump.Kind == entity.CounterKindThankYou {
			return entity.ErrThanksLimitExceeded
		}
		return entity.ErrDailyLimitExceeded
	}

	counter.Count++
	if err := tx.Save(&counter).Error; err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *ledgerRepository) CountToday(userID string, kind entity.DailyCounterKind, day string) (int, error) {
	var counter model.DailyCounterModel
	err := r.db.Where("user_id = ? AND day = ? AND kind = ?", userID, day, string(kind)).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	return counter.Count, nil
}

func (r *ledgerRepository) FindByIdempotencyKey(key string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	err := r.db.Where("idempotency_key = ?", key).First(&transactionModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *ledgerRepository) GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	query := r.db.Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}
