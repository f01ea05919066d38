package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/WillSuttie/MvcBean/app/config"
	"github.com/WillSuttie/MvcBean/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured database. Postgres connections are
// opened through lib/pq and handed to gorm.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(200 * time.Millisecond),
	}

	switch cfg.DBDriver {
	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil

	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// Migrate creates or updates the beans table, including the unique index
// on sale_date.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Bean{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SampleBeans are inserted by Seed into an empty catalog.
func SampleBeans() []models.Bean {
	return []models.Bean{
		{
			Name:         "Arabica",
			SaleDate:     models.NewDate(2025, time.January, 1),
			Aroma:        "Fruity",
			ColourHex:    "#8B4513",
			PricePer100g: decimal.RequireFromString("5.50"),
			ImagePath:    models.PlaceholderImagePath,
		},
		{
			Name:         "Robusta",
			SaleDate:     models.NewDate(2025, time.January, 2),
			Aroma:        "Earthy",
			ColourHex:    "#654321",
			PricePer100g: decimal.RequireFromString("4.00"),
			ImagePath:    models.PlaceholderImagePath,
		},
	}
}

// Seed inserts SampleBeans when the catalog is empty. It is a no-op otherwise.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Bean{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count beans: %w", err)
	}
	if count > 0 {
		return nil
	}

	beans := SampleBeans()
	if err := db.WithContext(ctx).Create(&beans).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to seed beans: %w", err)
	}

	log.Info().Int("count", len(beans)).Msg("Seeded sample beans")
	return nil
}
