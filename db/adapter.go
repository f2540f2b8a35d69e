package db

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/ghostai/config"
	dbmysql "github.com/kasuganosora/ghostai/db/mysql"
	dbsqlite "github.com/kasuganosora/ghostai/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

var ErrUnknownMode = errors.New("db: unknown mode")

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, cfg.Mode)
	}
}
