package backend

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wolfquant/internal/config"
	"wolfquant/internal/models"
)

// allModels is the list of GORM models the backend migrates.
var allModels = []interface{}{
	&models.User{},
	&models.Session{},
	&models.AssetType{},
	&models.Group{},
	&models.Asset{},
	&models.InvestmentPlan{},
	&models.Transaction{},
	&models.ImportTask{},
	&models.Candle{},
}

// seedAssetTypes are created on first migration. They mirror the market
// adapters shipped with the backend.
var seedAssetTypes = []models.AssetType{
	{Name: "crypto", Description: strPtr("Cryptocurrencies and tokens")},
	{Name: "fund", Description: strPtr("Mutual funds and ETFs")},
	{Name: "stock", Description: strPtr("Listed equities")},
}

func strPtr(s string) *string { return &s }

// OpenDatabase connects to the configured database, runs migrations, and
// seeds the asset type table. The default driver is an on-disk sqlite file
// (the embedded desktop backend); postgres is supported for a detached
// gatewayd deployment.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.DBDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBDriver == "postgres" {
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return nil, fmt.Errorf("failed to get underlying DB: %w", dbErr)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema and seeds reference data. Shared with the
// test helpers so tests run against the same schema as the app.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, at := range seedAssetTypes {
		var existing models.AssetType
		err := db.Where("name = ?", at.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			record := at
			if err := db.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to seed asset type %s: %w", at.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check asset type %s: %w", at.Name, err)
		}
	}
	return nil
}
