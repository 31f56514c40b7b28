// Package sql opens gorm connections for the relational blog store.
package sql

import (
	"context"
	stdsql "database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

const defaultPostgresPort = 5432

const sqliteDriverName = "sqlite3_blog"

// SQLiteLowerFunc unicode aware lower() registered on every sqlite connection,
// the builtin LOWER only folds ascii
const SQLiteLowerFunc = "go_lower"

func init() {
	stdsql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(SQLiteLowerFunc, strings.ToLower, true)
		},
	})
}

// OpenSQLite gorm dialector for dsn, connections carry SQLiteLowerFunc
func OpenSQLite(dsn string) gorm.Dialector {
	return &sqlite.Dialector{DriverName: sqliteDriverName, DSN: dsn}
}

// DialInfo relational database connection info
type DialInfo struct {
	// Type postgres or sqlite
	Type string
	// DSN used as is for sqlite, optional override for postgres
	DSN string
	Addr,
	DBName,
	User,
	Pwd string
	Port int
}

// BuildPostgresDSN builds a PostgreSQL DSN from dial info
func BuildPostgresDSN(dialInfo DialInfo) string {
	if dialInfo.DSN != "" {
		return dialInfo.DSN
	}

	port := dialInfo.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	return "host=" + dialInfo.Addr +
		" user=" + dialInfo.User +
		" password=" + dialInfo.Pwd +
		" dbname=" + dialInfo.DBName +
		" port=" + strconv.Itoa(port) +
		" sslmode=disable TimeZone=UTC"
}

// NewDB connect to database described by dialInfo
func NewDB(ctx context.Context, dialInfo DialInfo, logger logSDK.Logger) (*gorm.DB, error) {
	logger.Info("try to connect to sql db",
		zap.String("type", dialInfo.Type),
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	cfg := &gorm.Config{
		Logger:         NewGormLogger(logger.Named("gorm")),
		TranslateError: true,
	}

	switch dialInfo.Type {
	case TypePostgres:
		sqlDB, err := stdsql.Open("pgx", BuildPostgresDSN(dialInfo))
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		if err = sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "ping postgres")
		}

		sqlDB.SetMaxIdleConns(6)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
		if err != nil {
			return nil, errors.Wrap(err, "open gorm over postgres")
		}

		return db, nil
	case TypeSQLite:
		if dialInfo.DSN == "" {
			return nil, errors.New("sqlite dsn is empty")
		}

		db, err := gorm.Open(OpenSQLite(dialInfo.DSN), cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "open sqlite %q", dialInfo.DSN)
		}

		return db, nil
	default:
		return nil, errors.Errorf("unsupported sql db type %q", dialInfo.Type)
	}
}

// Close close underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}

	return sqlDB.Close()
}
