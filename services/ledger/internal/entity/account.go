package entity

import "time"

// Account holds a user's appreciation balances: reputation points and
// TOA (Token of Appreciation) tokens. Both are non-negative at all times;
// operations that would drive either below zero are rejected, not clamped.
type Account struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Points         int       `json:"points"`
	TOATokens      int       `json:"toa_tokens"`
	TotalPurchased int       `json:"total_purchased"`
	TotalSpent     int       `json:"total_spent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DailyCounterKind distinguishes the independent per-day limit mechanisms.
type DailyCounterKind string

const (
	CounterKindConversion DailyCounterKind = "conversion"
	CounterKindThankYou   DailyCounterKind = "thank_you"
)

// DayKey is the UTC calendar-day key used for daily counters. Counters
// implicitly expire when the key no longer matches the current day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
