package database

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/ekklesia/core"
)

const (
	EnginePostgres = "postgres"
	EngineSqlite   = "sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const maxPingAttempts = 30

func postgresURL(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SqliteDSN enables foreign keys and stores times in a format the driver parses back into time.Time.
func SqliteDSN(path string) string {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Open connects to the configured engine and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch conf.Database.Engine {
	case EnginePostgres:
		db, err = sqlx.Open("postgres", postgresURL(conf.Database.Name, conf))
	case EngineSqlite:
		path := conf.Database.Path
		if !filepath.IsAbs(path) && path != ":memory:" {
			path = filepath.Join(conf.WorkDir, path)
		}
		db, err = OpenSqlite(path)
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func OpenSqlite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", SqliteDSN(path))
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY between pool members
	db.SetMaxOpenConns(1)
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	for attempts := 1; attempts <= maxPingAttempts; attempts++ {
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

// CreateIfNotExist creates the postgres database of conf through the maintenance database.
// It is a no-op for sqlite, whose file is created on first connection.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != EnginePostgres {
		return nil
	}

	db, err := sqlx.Open("postgres", postgresURL("postgres", conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	var exists bool
	err = db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		// identifiers cannot be bound as parameters
		q := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(conf.Database.Name))
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// gooseDialect maps a sqlx driver name to the goose dialect.
func gooseDialect(db *sqlx.DB) string {
	if db.DriverName() == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

// Prepare points goose at the embedded migrations for db's dialect.
func Prepare(db *sqlx.DB, logger goose.Logger) error {
	goose.SetBaseFS(migrations)
	if logger != nil {
		goose.SetLogger(logger)
	}
	return errors.Wrap(goose.SetDialect(gooseDialect(db)), "setting goose dialect")
}

type gooseLogger struct {
	logger core.Logger
}

// GooseLogger routes goose output to logger.
func GooseLogger(logger core.Logger) goose.Logger {
	return gooseLogger{logger: logger}
}

func (gl gooseLogger) Printf(format string, v ...interface{}) {
	gl.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gl gooseLogger) Fatalf(format string, v ...interface{}) {
	gl.logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sqlx.DB, logger goose.Logger) error {
	return Run(ctx, db, logger, "up")
}

// Run runs a goose command (up, down, status, version, redo, reset...) against the embedded migrations.
func Run(ctx context.Context, db *sqlx.DB, logger goose.Logger, command string, args ...string) error {
	if err := Prepare(db, logger); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db.DB, "migrations", args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}
