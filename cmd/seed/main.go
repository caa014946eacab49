package main

import (
	"flag"
	"fmt"

	"thankatech/pkg/config"
	"thankatech/pkg/database"
	"thankatech/pkg/logger"
	"thankatech/services/ledger/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if err := seedDatabase(db, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, log *logger.Logger) error {
	testAccounts := []struct {
		userID string
		points int
		tokens int
	}{
		{"11111111-1111-1111-1111-111111111111", 12, 50},
		{"22222222-2222-2222-2222-222222222222", 3, 0},
		{"33333333-3333-3333-3333-333333333333", 0, 200},
		{"44444444-4444-4444-4444-444444444444", 25, 10},
	}

	for _, data := range testAccounts {
		var existing model.AccountModel
		result := db.Where("user_id = ?", data.userID).First(&existing)
		if result.Error == nil {
			log.Info("Account for user %s already exists, skipping", data.userID)
			continue
		}

		account := &model.AccountModel{
			UserID:    data.userID,
			Points:    data.points,
			TOATokens: data.tokens,
		}
		if err := db.Create(account).Error; err != nil {
			log.Error("Failed to create account for user %s: %v", data.userID, err)
			continue
		}

		log.Info("Created account for user %s: %d points, %d tokens", data.userID, data.points, data.tokens)
	}

	// A couple of sample appreciation records so history endpoints return data
	sampleTransactions := []*model.TransactionModel{
		{
			FromUserID:    &testAccounts[1].userID,
			ToUserID:      &testAccounts[0].userID,
			Type:          "thank_you",
			PointsAwarded: 1,
			Message:       "Fixed my AC in record time, thank you!",
		},
		{
			FromUserID:       &testAccounts[2].userID,
			ToUserID:         &testAccounts[0].userID,
			Type:             "toa_send",
			Tokens:           10,
			DollarValue:      decimal.NewFromInt(1),
			TechnicianPayout: decimal.RequireFromString("0.85"),
			PlatformFee:      decimal.RequireFromString("0.15"),
			PointsAwarded:    3,
		},
	}

	for _, txn := range sampleTransactions {
		var count int64
		db.Model(&model.TransactionModel{}).
			Where("from_user_id = ? AND to_user_id = ? AND type = ?", txn.FromUserID, txn.ToUserID, txn.Type).
			Count(&count)
		if count > 0 {
			log.Info("Sample %s transaction already exists, skipping", txn.Type)
			continue
		}

		if err := db.Create(txn).Error; err != nil {
			log.Error("Failed to create sample transaction: %v", err)
			continue
		}
		log.Info("Created sample %s transaction", txn.Type)
	}

	return nil
}
