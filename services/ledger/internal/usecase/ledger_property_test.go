package usecase

import (
	"fmt"
	"math/rand"
	"testing"

	"thankatech/pkg/logger"
	"thankatech/services/ledger/internal/entity"
	"thankatech/services/ledger/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeLedgerRepo is an in-memory LedgerRepository with the same atomicity
// contract as the persistent one: a failed apply changes nothing.
type fakeLedgerRepo struct {
	accounts     map[string]*entity.Account
	transactions []*entity.Transaction
	counters     map[string]int
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		accounts: make(map[string]*entity.Account),
		counters: make(map[string]int),
	}
}

func (f *fakeLedgerRepo) GetOrCreateAccount(userID string) (*entity.Account, error) {
	if account, ok := f.accounts[userID]; ok {
		snapshot := *account
		return &snapshot, nil
	}
	account := &entity.Account{ID: uuid.New().String(), UserID: userID}
	f.accounts[userID] = account
	snapshot := *account
	return &snapshot, nil
}

func (f *fakeLedgerRepo) GetAccount(userID string) (*entity.Account, error) {
	account, ok := f.accounts[userID]
	if !ok {
		return nil, entity.ErrAccountNotFound
	}
	snapshot := *account
	return &snapshot, nil
}

func (f *fakeLedgerRepo) ApplyTransaction(txn *entity.Transaction, deltas []persistent.BalanceDelta, bump *persistent.CounterBump) (map[string]*entity.Account, error) {
	staged := make(map[string]entity.Account, len(deltas))
	for _, d := range deltas {
		account, ok := f.accounts[d.UserID]
		if !ok {
			return nil, entity.ErrAccountNotFound
		}
		next := *account
		next.Points += d.Points
		next.TOATokens += d.Tokens
		next.TotalPurchased += d.PurchasedTokens
		next.TotalSpent += d.SpentTokens
		if next.Points < 0 {
			return nil, entity.ErrInsufficientPoints
		}
		if next.TOATokens < 0 {
			return nil, entity.ErrInsufficientTokens
		}
		staged[d.UserID] = next
	}

	if bump != nil {
		key := fmt.Sprintf("%s|%s|%s", bump.UserID, bump.Day, bump.Kind)
		if f.counters[key] >= bump.Limit {
			if bump.Kind == entity.CounterKindThankYou {
				return nil, entity.ErrThanksLimitExceeded
			}
			return nil, entity.ErrDailyLimitExceeded
		}
		f.counters[key]++
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	recorded := *txn
	f.transactions = append(f.transactions, &recorded)

	updated := make(map[string]*entity.Account, len(staged))
	for userID, account := range staged {
		stored := account
		f.accounts[userID] = &stored
		snapshot := stored
		updated[userID] = &snapshot
	}
	return updated, nil
}

func (f *fakeLedgerRepo) CountToday(userID string, kind entity.DailyCounterKind, day string) (int, error) {
	return f.counters[fmt.Sprintf("%s|%s|%s", userID, day, kind)], nil
}

func (f *fakeLedgerRepo) FindByIdempotencyKey(key string) (*entity.Transaction, error) {
	for _, txn := range f.transactions {
		if txn.IdempotencyKey == key {
			snapshot := *txn
			return &snapshot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, txn := range f.transactions {
		if txn.FromUserID == userID || txn.ToUserID == userID {
			snapshot := *txn
			out = append(out, &snapshot)
		}
	}
	return out, nil
}

var _ persistent.LedgerRepository = (*fakeLedgerRepo)(nil)

func TestConversionConservation(t *testing.T) {
	repo := newFakeLedgerRepo()
	uc := NewLedgerUseCase(repo, entity.DefaultPolicy(), nil, nil, logger.New())

	repo.accounts["user-1"] = &entity.Account{ID: "acct-1", UserID: "user-1", Points: 95}

	pointsBefore := 95
	tokensGenerated := 0
	for _, points := range []int{5, 10, 25, 40} {
		result, err := uc.ConvertPoints("user-1", points, "")
		assert.NoError(t, err)
		tokensGenerated += result.TokensGenerated
	}

	account, _ := repo.GetAccount("user-1")
	assert.Equal(t, pointsBefore-account.Points, 5*tokensGenerated,
		"points spent must equal 5x tokens generated")
	assert.Equal(t, 0, account.Points%5)
	assert.Equal(t, tokensGenerated, account.TOATokens)
}

func TestDailyCap_TwentyFirstConversionRejected(t *testing.T) {
	repo := newFakeLedgerRepo()
	uc := NewLedgerUseCase(repo, entity.DefaultPolicy(), nil, nil, logger.New())

	repo.accounts["user-1"] = &entity.Account{ID: "acct-1", UserID: "user-1", Points: 500}

	for i := 0; i < 20; i++ {
		_, err := uc.ConvertPoints("user-1", 5, "")
		assert.NoError(t, err, "conversion %d should succeed", i+1)
	}

	_, err := uc.ConvertPoints("user-1", 5, "")
	assert.ErrorIs(t, err, entity.ErrDailyLimitExceeded)

	account, _ := repo.GetAccount("user-1")
	assert.Equal(t, 400, account.Points)
	assert.Equal(t, 20, account.TOATokens)
}

func TestThankYouScenario_EndToEnd(t *testing.T) {
	repo := newFakeLedgerRepo()
	uc := NewLedgerUseCase(repo, entity.DefaultPolicy(), nil, nil, logger.New())

	repo.accounts["user-a"] = &entity.Account{ID: "a", UserID: "user-a", Points: 7}
	repo.accounts["tech-b"] = &entity.Account{ID: "b", UserID: "tech-b", Points: 0}

	_, err := uc.SendThankYou("user-a", "tech-b", "thanks!")
	assert.NoError(t, err)

	sender, _ := repo.GetAccount("user-a")
	receiver, _ := repo.GetAccount("tech-b")
	assert.Equal(t, 7, sender.Points, "sender points unchanged")
	assert.Equal(t, 1, receiver.Points)

	transactions, _ := repo.GetTransactions("tech-b", 0, 0)
	assert.Len(t, transactions, 1)
	assert.Equal(t, entity.TransactionTypeThankYou, transactions[0].Type)
	assert.True(t, transactions[0].DollarValue.IsZero())
}

func TestTokenSendScenario_OneDollar(t *testing.T) {
	repo := newFakeLedgerRepo()
	uc := NewLedgerUseCase(repo, entity.DefaultPolicy(), nil, nil, logger.New())

	repo.accounts["customer"] = &entity.Account{ID: "c", UserID: "customer", TOATokens: 100}
	repo.accounts["tech"] = &entity.Account{ID: "t", UserID: "tech"}

	result, err := uc.SendTokens("customer", "tech", 20, decimal.NewFromInt(1))
	assert.NoError(t, err)

	assert.True(t, result.Transaction.TechnicianPayout.Equal(decimal.RequireFromString("0.85")))
	assert.True(t, result.Transaction.PlatformFee.Equal(decimal.RequireFromString("0.15")))

	sender, _ := repo.GetAccount("customer")
	receiver, _ := repo.GetAccount("tech")
	assert.Equal(t, 1, sender.Points)
	assert.Equal(t, 2, receiver.Points)
	assert.Equal(t, 80, sender.TOATokens)
	assert.Equal(t, 20, receiver.TOATokens)
	assert.Equal(t, 20, sender.TotalSpent)
}

func TestRandomOperations_NeverNegative(t *testing.T) {
	repo := newFakeLedgerRepo()
	uc := NewLedgerUseCase(repo, entity.DefaultPolicy(), nil, nil, logger.New())

	users := []string{"u1", "u2", "u3", "u4"}
	for _, u := range users {
		repo.accounts[u] = &entity.Account{ID: u, UserID: u, Points: 20, TOATokens: 10}
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		from := users[rng.Intn(len(users))]
		to := users[rng.Intn(len(users))]

		switch rng.Intn(4) {
		case 0:
			uc.SendThankYou(from, to, "")
		case 1:
			uc.SendTokens(from, to, rng.Intn(30)+1, decimal.Zero)
		case 2:
			uc.ConvertPoints(from, (rng.Intn(10)+1)*5, "")
		case 3:
			uc.RecordPurchase(from, rng.Intn(20)+1, decimal.NewFromInt(int64(rng.Intn(10)+1)), "pi_test")
		}

		for _, u := range users {
			account, err := repo.GetAccount(u)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, account.Points, 0, "points went negative for %s at op %d", u, i)
			assert.GreaterOrEqual(t, account.TOATokens, 0, "tokens went negative for %s at op %d", u, i)
		}
	}
}
