package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/copymyprompt/backend/internal/config"
	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db     *gorm.DB
	driver string
}

// New opens the database selected by cfg.Database.Driver, migrates the
// schema and seeds the default categories.
func New(cfg *config.Config) (Service, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector, cfg.Database.Driver, cfg.LogLevel)
}

// Dialector builds the GORM dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	dbc := cfg.Database

	switch dbc.Driver {
	case "postgres", "":
		dsn := dbc.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
				dbc.Host, dbc.User, dbc.Password, dbc.Name, dbc.Port, dbc.SSLMode,
			)
		}
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("error parsing postgres dsn: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*connConfig)}), nil

	case "mysql":
		dsn := dbc.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				dbc.User, dbc.Password, dbc.Host, dbc.Port, dbc.Name,
			)
		}
		return mysql.Open(dsn), nil

	case "sqlite":
		dsn := dbc.DSN
		if dsn == "" {
			dsn = dbc.Name + ".db?_foreign_keys=on"
		}
		return sqlite.Open(dsn), nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", dbc.Driver)
}

// Open connects through an already built dialector. Tests use it with an
// in-memory SQLite dialector.
func Open(dialector gorm.Dialector, driver string, level slog.Level) (Service, error) {
	logLevel := logger.Warn
	if level <= slog.LevelDebug {
		logLevel = logger.Info
	}

	// Configure GORM logger
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database instance: %w", err)
	}

	// Configure connection pool
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	slog.Info("database connected", "driver", driver)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &service{db: db, driver: driver}, nil
}

// Migrate creates or updates every table and seeds the default categories
// when the categories table is empty.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Like{},
		&models.Share{},
		&models.Copy{},
		&models.Rating{},
		&models.Follow{},
	)
	if err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("error counting categories: %w", err)
	}
	if count == 0 {
		categories := make([]models.Category, 0, len(models.DefaultCategories))
		for _, name := range models.DefaultCategories {
			categories = append(categories, models.Category{Name: name})
		}
		if err := db.Create(&categories).Error; err != nil {
			return fmt.Errorf("error seeding categories: %w", err)
		}
		slog.Info("seeded default categories", "count", len(categories))
	}

	slog.Info("database migrations completed")
	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Get underlying SQL DB
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	// Ping the database
	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["driver"] = s.driver

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	slog.Info("disconnected from database", "driver", s.driver)
	return sqlDB.Close()
}
