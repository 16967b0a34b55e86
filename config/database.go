package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDatabaseURL = "sqlite:///./app.db"

var db *gorm.DB

// InitDatabase connects using the loaded configuration and migrates the given models.
// Connection failures are fatal.
func InitDatabase(modelDefs ...interface{}) *gorm.DB {
	if db != nil {
		return db
	}

	var err error
	db, err = OpenDatabase(Get(), modelDefs...)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return db
}

// OpenDatabase opens a gorm connection for cfg and auto-migrates modelDefs.
func OpenDatabase(cfg AppConfig, modelDefs ...interface{}) (*gorm.DB, error) {
	driver, dsn, err := ResolveDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	default:
		dialector = mysql.Open(dsn)
	}

	// Derive GORM log level from app LogLevel and raise slow-sql threshold to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// SQLite serialises writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if len(modelDefs) > 0 {
		if err := conn.AutoMigrate(modelDefs...); err != nil {
			return nil, fmt.Errorf("auto migration failed: %w", err)
		}
	}
	return conn, nil
}

// ResolveDatabase picks the driver and DSN. DATABASE_URL wins; otherwise the DB_* parts
// build a MySQL DSN; with neither set a local SQLite file is used.
func ResolveDatabase(cfg AppConfig) (driver, dsn string, err error) {
	raw := strings.TrimSpace(cfg.DatabaseURL)
	if raw == "" && cfg.DBHost != "" {
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		), nil
	}
	if raw == "" {
		raw = defaultDatabaseURL
	}
	return ParseDatabaseURL(raw)
}

// ParseDatabaseURL understands sqlite:///relative, sqlite:////absolute, sqlite://:memory:
// and mysql://<go-sql-driver DSN>.
func ParseDatabaseURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		rest := strings.TrimPrefix(raw, "sqlite://")
		if rest == ":memory:" || rest == "/:memory:" {
			return "sqlite", ":memory:", nil
		}
		// sqlite:///./app.db -> ./app.db, sqlite:////var/app.db -> /var/app.db
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", raw)
		}
		return "sqlite", rest, nil
	case strings.HasPrefix(raw, "mysql://"):
		rest := strings.TrimPrefix(raw, "mysql://")
		if rest == "" {
			return "", "", fmt.Errorf("mysql url %q has no dsn", raw)
		}
		return "mysql", rest, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", raw)
	}
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		// Suppress per-statement logs; keep warnings (including slow SQL)
		return logger.Warn
	}
}

// DB provides access to initialized gorm DB instance.
func DB() *gorm.DB {
	if db == nil {
		log.Fatal("database not initialized, call InitDatabase first")
	}
	return db
}
