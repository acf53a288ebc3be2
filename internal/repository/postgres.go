package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

// scanRecord is the stored form of a ScanResult. The summary columns are
// kept alongside the JSON payload so the history can be queried directly.
type scanRecord struct {
	ID           string            `gorm:"primaryKey;size:36"`
	Address      string            `gorm:"size:64;not null;index:idx_scans_address_time,priority:1"`
	ScannedAt    int64             `gorm:"not null;index:idx_scans_address_time,priority:2"`
	OverallScore float64           `gorm:"not null"`
	OverallLabel string            `gorm:"size:16;not null"`
	Result       models.ScanResult `gorm:"serializer:json;type:jsonb"`
}

func (scanRecord) TableName() string {
	return "scans"
}

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

var _ models.Repository = (*PostgresDB)(nil)

func NewPostgresDB(dsn string, logger *logger.Logger) (*PostgresDB, error) {
	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&models.Wallet{}, &scanRecord{}, &models.AppLock{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func (db *PostgresDB) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	if err := db.Conn.WithContext(ctx).Save(wallet).Error; err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetWallet(ctx context.Context, address string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Conn.WithContext(ctx).Where("address = ?", address).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

func (db *PostgresDB) ListActiveWallets(ctx context.Context) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	if err := db.Conn.WithContext(ctx).Where("active = ?", true).Order("address").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list active wallets: %w", err)
	}
	return wallets, nil
}

func (db *PostgresDB) SaveScan(ctx context.Context, scan *models.ScanResult) error {
	record := scanRecord{
		ID:           scan.ID,
		Address:      scan.Address,
		ScannedAt:    scan.ScannedAt.UnixMilli(),
		OverallScore: scan.Summary.OverallScore,
		OverallLabel: string(scan.Summary.OverallLabel),
		Result:       *scan,
	}
	if err := db.Conn.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

func (db *PostgresDB) LatestScan(ctx context.Context, address string) (*models.ScanResult, error) {
	var record scanRecord
	err := db.Conn.WithContext(ctx).
		Where("address = ?", address).
		Order("scanned_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrScanNotFound
		}
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}
	return &record.Result, nil
}

// AcquireLock inserts the lease or takes it over when it expired or is already ours.
func (db *PostgresDB) AcquireLock(ctx context.Context, name, instanceID string, ttlSeconds int64) (bool, error) {
	now := time.Now().Unix()
	lock := models.AppLock{
		LockName:   name,
		InstanceID: instanceID,
		AcquiredAt: now,
		ExpiresAt:  now + ttlSeconds,
	}
	res := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lock_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"instance_id", "acquired_at", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "app_locks.expires_at < ? OR app_locks.instance_id = ?", Vars: []interface{}{now, instanceID}},
		}},
	}).Create(&lock)
	if res.Error != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, res.Error)
	}
	return res.RowsAffected > 0, nil
}
