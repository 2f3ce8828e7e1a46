package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/hbomb79/geoingest/pkg/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	sqldblogger "github.com/simukti/sqldb-logger"
)

const (
	SqlDialect = "postgres"

	connectAttempts     = 5
	connectRetryBackoff = 3 * time.Second
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS

	dbLogger = logger.Get("DB")
)

type (
	SqlLogger struct {
		logger logger.Logger
	}

	// gooseLogger adapts our logger to the goose.Logger interface. Fatal
	// messages are emitted at FATAL level but do NOT exit the process, goose
	// still returns the error to the caller.
	gooseLogger struct {
		logger logger.Logger
	}

	Manager interface {
		Connect(context.Context, Config) error
		GetSqlxDb() *sqlx.DB
		WrapTx(func(*sqlx.Tx) error) error
		Close() error
	}

	manager struct {
		rawDb *sql.DB
		db    *sqlx.DB
	}
)

func New() *manager {
	return &manager{}
}

// DSN builds the lib/pq connection URL for the config provided. The
// credentials are escaped, so passwords containing reserved characters
// are safe to use.
func (config Config) DSN() string {
	query := url.Values{}
	query.Set("sslmode", config.SSLMode)

	return (&url.URL{
		Scheme:   SqlDialect,
		User:     url.UserPassword(config.User, config.Password),
		Host:     net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Path:     "/" + config.Name,
		RawQuery: query.Encode(),
	}).String()
}

// Connect opens the connection to the database, waits for it to become available
// and then applies any pending migrations. The ping is attempted a small number of
// times to allow for a database that is still starting up.
func (db *manager) Connect(ctx context.Context, config Config) error {
	dsn := config.DSN()
	sql, err := sql.Open(SqlDialect, dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if config.LogQueries {
		sql = sqldblogger.OpenDriver(dsn, sql.Driver(), &SqlLogger{dbLogger}, sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug))
	}

	for attempt := 1; ; attempt++ {
		err := sql.PingContext(ctx)
		if err == nil {
			break
		}

		if attempt >= connectAttempts || ctx.Err() != nil {
			dbLogger.Emit(logger.ERROR, "All attempts FAILED!\n")
			_ = sql.Close()
			return fmt.Errorf("failed to connect to postgres at %s:%d: %w", config.Host, config.Port, err)
		}

		dbLogger.Emit(logger.WARNING, "Attempt (%v/%v) failed (%s)... Retrying in %s\n", attempt, connectAttempts, err, connectRetryBackoff)
		select {
		case <-time.After(connectRetryBackoff):
		case <-ctx.Done():
		}
	}

	db.rawDb = sql
	db.db = sqlx.NewDb(sql, SqlDialect)

	if err := db.ExecuteMigrations(); err != nil {
		return err
	}

	dbLogger.Emit(logger.SUCCESS, "Database connection complete!\n")
	return nil
}

// ExecuteMigrations uses the comp-time embedded SQL migrations (found in the 'migrations'
// dir in this package) and runs them against the current DB instance.
//
// Note that this method must only be called following a successful DB connection.
func (db *manager) ExecuteMigrations() error {
	rawDb := db.rawDb
	if rawDb == nil {
		return fmt.Errorf("cannot execute migrations when DB manager has not yet connected")
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{dbLogger})
	if err := goose.SetDialect(SqlDialect); err != nil {
		return fmt.Errorf("failed to set dialect for DB migration: %w", err)
	}

	dbLogger.Emit(logger.DEBUG, "Checking for pending DB migrations...\n")
	if err := goose.Up(rawDb, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}

	dbLogger.Emit(logger.DEBUG, "DB Goose migration complete!\n")
	return nil
}

// GetSqlxDb returns the sqlx database connection if
// one has been opened using 'Connect'. Otherwise, nil is returned
func (db *manager) GetSqlxDb() *sqlx.DB {
	return db.db
}

// WrapTx is a convinience method around the top-level WrapTx, which simply
// uses the managers DB instance as the first argument.
func (db *manager) WrapTx(f func(tx *sqlx.Tx) error) error {
	if db.db == nil {
		return errors.New("DB manager has not yet connected")
	}

	return WrapTx(db.db, f)
}

func (db *manager) Close() error {
	if db.db == nil {
		return nil
	}

	err := db.db.Close()
	db.db = nil
	db.rawDb = nil

	return err
}

func (l *SqlLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]any) {
	template := "%s - %v\n"
	switch level {
	case sqldblogger.LevelTrace:
		l.logger.Verbosef(template, msg, data)
	case sqldblogger.LevelDebug, sqldblogger.LevelInfo:
		duration := data["duration"]
		query, ok := data["query"]
		if ok {
			l.logger.Debugf("%s [%.2fms] -- %s\n", msg, duration, query)
		} else {
			l.logger.Debugf("%s [%.2fms]\n", msg, duration)
		}
	case sqldblogger.LevelError:
		l.logger.Errorf(template, msg, data)
	}
}

func (l *gooseLogger) Fatal(v ...interface{})                 { l.logger.Emit(logger.FATAL, "%s", fmt.Sprint(v...)) }
func (l *gooseLogger) Fatalf(format string, v ...interface{}) { l.logger.Emit(logger.FATAL, format, v...) }
func (l *gooseLogger) Print(v ...interface{})                 { l.logger.Debugf("%s", fmt.Sprint(v...)) }
func (l *gooseLogger) Println(v ...interface{})               { l.logger.Debugf("%s", fmt.Sprintln(v...)) }
func (l *gooseLogger) Printf(format string, v ...interface{}) { l.logger.Debugf(format, v...) }

// WrapTx starts a transaction against the provided DB, and then calls the user
// provided function. If this function errors, the transaction is rolled back - otherwise
// the transaction is committed.
func WrapTx(db *sqlx.DB, f func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := f(tx); err != nil {
		dbLogger.Errorf("Transaction failed... rolling back. Error: %s\n", err.Error())
		return err
	}

	return tx.Commit()
}
