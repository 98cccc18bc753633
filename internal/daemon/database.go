package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/dsn"
	"github.com/authenticator/authenticator/internal/db/models"
	gormlog "github.com/authenticator/authenticator/internal/logger/adapter/gorm"
)

const (
	initialInterval = time.Second
	maxInterval     = 30 * time.Second
	slowQuery       = 200 * time.Millisecond
)

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	source, err := dsn.Create(cfg)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.DB.GormEngine) {
	case dsn.EngineMySQL:
		return gormmysql.Open(source), nil
	case dsn.EnginePostgres:
		return postgres.Open(source), nil
	default:
		return sqlite.Open(source), nil
	}
}

// OpenDatabase connects to the configured database, retrying with exponential
// backoff, and migrates the schema. DB.ConnectRetries of 0 retries until ctx ends.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0

	var policy backoff.BackOff = bo
	if cfg.DB.ConnectRetries > 0 {
		policy = backoff.WithMaxRetries(bo, uint64(cfg.DB.ConnectRetries)) //nolint:gosec
	}

	var db *gorm.DB

	err = backoff.RetryNotify(func() error {
		var errOpen error

		db, errOpen = gorm.Open(dial, &gorm.Config{
			Logger:         gormlog.New(slowQuery),
			TranslateError: true,
		})
		if errOpen != nil {
			return errOpen
		}

		sqlDB, errOpen := db.DB()
		if errOpen != nil {
			return errOpen
		}

		return sqlDB.PingContext(ctx)
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		log.Warn().Err(err).Str("engine", cfg.DB.GormEngine).Dur("retry_in", next).Msg("database not reachable")
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if dsnIsMemory(cfg) {
		// every pooled connection would get its own in-memory database
		sqlDB, _ := db.DB() //nolint:errcheck
		sqlDB.SetMaxOpenConns(1)
	}

	if err = db.AutoMigrate(&models.User{}, &models.ActivityLog{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Msg("database ready")

	return db, nil
}

func dsnIsMemory(cfg *config.Config) bool {
	engine := strings.ToLower(cfg.DB.GormEngine)

	return (engine == dsn.EngineSQLite || engine == "") && (cfg.DB.Name == "" || cfg.DB.Name == ":memory:")
}
