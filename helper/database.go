package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Querier is implemented by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database holds the connection pool and the logger shared by all handlers.
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// DatabaseConfiguration holds the connection settings for postgres.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, NewError("load .env", err)
	}

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DATABASE_HOST"),
		Port:     os.Getenv("DATABASE_PORT"),
		Database: os.Getenv("DATABASE_NAME"),
		Username: os.Getenv("DATABASE_USERNAME"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		Schema:   os.Getenv("DATABASE_SCHEMA"),
		SSLMode:  os.Getenv("DATABASE_SSL_MODE"),
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	var missing []string
	if config.Host == "" {
		missing = append(missing, "DATABASE_HOST")
	}
	if config.Port == "" {
		missing = append(missing, "DATABASE_PORT")
	}
	if config.Database == "" {
		missing = append(missing, "DATABASE_NAME")
	}
	if config.Username == "" {
		missing = append(missing, "DATABASE_USERNAME")
	}
	if len(missing) > 0 {
		return nil, NewError("database configuration", fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", ")))
	}

	return config, nil
}

// ConnectionString builds the lib/pq connection url.
func (c *DatabaseConfiguration) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewDatabase opens and pings a connection pool. It panics if the database is unreachable.
func NewDatabase(name string, dbConfig *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	instance, err := sql.Open("postgres", dbConfig.ConnectionString())
	if err != nil {
		log.Panicf("error opening database %s: %v", name, err)
	}
	instance.SetMaxOpenConns(25)
	instance.SetMaxIdleConns(25)
	instance.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = instance.PingContext(ctx)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", dbConfig.Host), slog.String("database", dbConfig.Database))

	return &Database{
		Name:     name,
		Logger:   logger,
		Instance: instance,
	}
}

// NewTestDatabase creates a database with a debug level pretty logger.
func NewTestDatabase(dbConfig *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}))
	return NewDatabase("test", dbConfig, logger)
}

// RunInTx runs fn inside a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise.
func (d *Database) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.Instance.BeginTx(ctx, nil)
	if err != nil {
		return NewError("begin transaction", err)
	}

	err = fn(tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			d.Logger.Error("Rollback failed", slog.String("error", rollbackErr.Error()))
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return NewError("commit transaction", err)
	}

	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
