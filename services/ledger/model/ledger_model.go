package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountModel struct {
	ID             string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID         string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Points         int       `gorm:"not null" json:"points"`
	TOATokens      int       `gorm:"column:toa_tokens;not null" json:"toa_tokens"`
	TotalPurchased int       `gorm:"not null" json:"total_purchased"`
	TotalSpent     int       `gorm:"not null" json:"total_spent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (a *AccountModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// FromUserID/ToUserID are pointers: a conversion has no receiver and a
// purchase has no sender, and the uuid columns take NULL, not ”.
type TransactionModel struct {
	ID               string          `gorm:"type:uuid;primary_key" json:"id"`
	FromUserID       *string         `gorm:"type:uuid;index" json:"from_user_id,omitempty"`
	ToUserID         *string         `gorm:"type:uuid;index" json:"to_user_id,omitempty"`
	Type             string          `gorm:"type:varchar(20);not null" json:"type"`
	Tokens           int             `gorm:"not null" json:"tokens"`
	DollarValue      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"dollar_value"`
	TechnicianPayout decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"technician_payout"`
	PlatformFee      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_fee"`
	PointsAwarded    int             `gorm:"not null" json:"points_awarded"`
	Message          string          `gorm:"type:text" json:"message,omitempty"`
	PaymentRef       string          `gorm:"type:varchar(128)" json:"payment_ref,omitempty"`
	IdempotencyKey   string          `gorm:"type:varchar(64);index" json:"idempotency_key,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}

func (t *TransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

type DailyCounterModel struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_day_kind" json:"user_id"`
	Day       string    `gorm:"type:char(10);not null;uniqueIndex:idx_user_day_kind" json:"day"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_day_kind" json:"kind"`
	Count     int       `gorm:"not null" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DailyCounterModel) TableName() string {
	return "daily_counters"
}

func (d *DailyCounterModel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
