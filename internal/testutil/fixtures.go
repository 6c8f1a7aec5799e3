package testutil

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wolfquant/internal/models"
	"wolfquant/internal/uuid"
)

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "password1234"

// CreateTestUser inserts a user with a bcrypt-hashed TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// GetAssetType looks up a seeded asset type by name.
func GetAssetType(t *testing.T, db *gorm.DB, name string) *models.AssetType {
	t.Helper()

	var at models.AssetType
	if err := db.Where("name = ?", name).First(&at).Error; err != nil {
		t.Fatalf("failed to find asset type %q: %v", name, err)
	}
	return &at
}

// CreateTestGroup inserts a group for the user.
func CreateTestGroup(t *testing.T, db *gorm.DB, userID, assetTypeID uint, name string) *models.Group {
	t.Helper()

	group := &models.Group{
		UserID:      userID,
		Name:        name,
		AssetTypeID: assetTypeID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestAsset inserts an asset with a price and position.
func CreateTestAsset(t *testing.T, db *gorm.DB, userID, assetTypeID uint, code string) *models.Asset {
	t.Helper()

	price := 100.0
	amount := 2.0
	cost := 150.0
	asset := &models.Asset{
		UserID:         userID,
		AssetTypeID:    assetTypeID,
		Code:           code,
		Name:           "Asset " + code,
		CurrentPrice:   &price,
		PositionAmount: &amount,
		PositionCost:   &cost,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestPlan inserts an active daily plan for the asset, due now.
func CreateTestPlan(t *testing.T, db *gorm.DB, userID, assetID uint, name string) *models.InvestmentPlan {
	t.Helper()

	now := time.Now()
	plan := &models.InvestmentPlan{
		UserID:        userID,
		AssetID:       assetID,
		Name:          name,
		Frequency:     models.FrequencyDaily,
		Amount:        50,
		IsActive:      true,
		NextExecution: &now,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}

// CreateTestImportTask inserts an import task in the given status.
func CreateTestImportTask(t *testing.T, db *gorm.DB, status models.ImportStatus) *models.ImportTask {
	t.Helper()

	task := &models.ImportTask{
		ID:        uuid.New(),
		AssetType: "crypto",
		Source:    "binance",
		Symbol:    "BTCUSDT",
		StartTime: time.Now().Add(-24 * time.Hour),
		EndTime:   time.Now(),
		Interval:  "1h",
		Status:    status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test import task: %v", err)
	}
	return task
}
