package persistent

import (
	"thankatech/services/ledger/internal/entity"
	"thankatech/services/ledger/model"
)

func ToAccountEntity(m *model.AccountModel) *entity.Account {
	if m == nil {
		return nil
	}

	return &entity.Account{
		ID:             m.ID,
		UserID:         m.UserID,
		Points:         m.Points,
		TOATokens:      m.TOATokens,
		TotalPurchased: m.TotalPurchased,
		TotalSpent:     m.TotalSpent,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ToAccountModel(e *entity.Account) *model.AccountModel {
	if e == nil {
		return nil
	}

	return &model.AccountModel{
		ID:             e.ID,
		UserID:         e.UserID,
		Points:         e.Points,
		TOATokens:      e.TOATokens,
		TotalPurchased: e.TotalPurchased,
		TotalSpent:     e.TotalSpent,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// idOrNil maps an absent party id to NULL; Postgres rejects ” for uuid
// columns.
func idOrNil(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func idOrEmpty(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func ToTransactionEntity(m *model.TransactionModel) *entity.Transaction {
	if m == nil {
		return nil
	}

	return &entity.Transaction{
		ID:               m.ID,
		FromUserID:       idOrEmpty(m.FromUserID),
		ToUserID:         idOrEmpty(m.ToUserID),
		Type:             entity.TransactionType(m.Type),
		Tokens:           m.Tokens,
		DollarValue:      m.DollarValue,
		TechnicianPayout: m.TechnicianPayout,
		PlatformFee:      m.PlatformFee,
		PointsAwarded:    m.PointsAwarded,
		Message:          m.Message,
		PaymentRef:       m.PaymentRef,
		IdempotencyKey:   m.IdempotencyKey,
		CreatedAt:        m.CreatedAt,
	}
}

func ToTransactionModel(e *entity.Transaction) *model.TransactionModel {
	if e == nil {
		return nil
	}

	return &model.TransactionModel{
		ID:               e.ID,
		FromUserID:       idOrNil(e.FromUserID),
		ToUserID:         idOrNil(e.ToUserID),
		Type:             string(e.Type),
		Tokens:           e.Tokens,
		DollarValue:      e.DollarValue,
		TechnicianPayout: e.TechnicianPayout,
		PlatformFee:      e.PlatformFee,
		PointsAwarded:    e.PointsAwarded,
		Message:          e.Message,
		PaymentRef:       e.PaymentRef,
		IdempotencyKey:   e.IdempotencyKey,
		CreatedAt:        e.CreatedAt,
	}
}
