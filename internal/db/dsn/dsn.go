// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/authenticator/authenticator/internal/config"
)

// Engines understood by Create.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// ErrUnknownEngine is returned for a DB.GormEngine that has no DSN format.
var ErrUnknownEngine = errors.New("unknown gorm engine")

// Create builds the Data Source Name for the configured engine.
func Create(dbCfg *config.Config) (string, error) {
	db := dbCfg.DB

	switch strings.ToLower(db.GormEngine) {
	case EngineMySQL:
		out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
		)
		if db.Extras != "" {
			out += "?" + db.Extras
		}

		return out, nil
	case EnginePostgres:
		sslMode := db.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}

		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
			sslMode,
		)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out, nil
	case EngineSQLite, "":
		out := db.Name
		if out == "" {
			out = ":memory:"
		}

		if db.Extras != "" {
			out += "?" + db.Extras
		}

		return out, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, db.GormEngine)
	}
}
