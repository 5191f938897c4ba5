package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
)

// supported engines
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
)

var errUnknownEngine = errors.New("unknown database engine")

// DSN builds the driver data source name for conf.
func DSN(conf core.DatabaseConfig) (string, error) {
	switch conf.Engine {
	case EnginePostgres:
		sslMode := "require"
		if conf.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   conf.Engine,
			User:     url.UserPassword(conf.User, conf.Password),
			Host:     conf.Address(),
			Path:     conf.Name,
			RawQuery: q.Encode(),
		}
		return u.String(), nil
	case EngineMySQL:
		mc := mysql.NewConfig()
		mc.User = conf.User
		mc.Passwd = conf.Password
		mc.Net = "tcp"
		mc.Addr = conf.Address()
		mc.DBName = conf.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		if !conf.DisableTLS {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN(), nil
	default:
		return "", errors.Wrapf(errUnknownEngine, "%q", conf.Engine)
	}
}

// Open connects to the configured database, waits for it to be ready and ensures the schema exists.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(conf.Engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureSchema creates the tables this app owns if they do not exist yet.
func EnsureSchema(db *sqlx.DB) error {
	var q string
	switch db.DriverName() {
	case EngineMySQL:
		q = `CREATE TABLE IF NOT EXISTS session_token (
			storage_key VARCHAR(191) NOT NULL PRIMARY KEY,
			token       TEXT         NOT NULL,
			updated_at  DATETIME     NOT NULL
		)`
	default:
		q = `CREATE TABLE IF NOT EXISTS session_token (
			storage_key TEXT        NOT NULL PRIMARY KEY,
			token       TEXT        NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`
	}
	if _, err := db.Exec(q); err != nil {
		return errors.Wrap(err, fmt.Sprintf("creating table session_token (%s)", db.DriverName()))
	}
	return nil
}
