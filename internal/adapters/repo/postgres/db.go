package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
)

type Options struct {
	Driver        string
	DSN           string
	SlowThreshold time.Duration
	Logger        zerolog.Logger
}

// Open connects to the configured store and checks it is reachable.
// SQLite connections always get foreign keys enabled so the cascade rules
// behave as on Postgres.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "", DriverPostgres:
		dialector = gormpg.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(opts.DSN))
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(opts.Logger, opts.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.Driver == DriverSQLite {
		// one connection: in-memory databases are per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
		sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
		sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)
	}

	if err := Ping(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" || dsn == ":memory:" {
		dsn = "file::memory:"
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the four tables together with their foreign
// keys and cascade rules.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Customer{}, &domain.Product{}, &domain.Order{}, &domain.OrderLine{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
