package helper

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dbName = "database"
	dbUser = "user"
	dbPwd  = "password"
)

// MustStartPostgresContainer starts a pgvector enabled postgres container
// and returns its teardown function and the mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", NewError("start postgres container", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return pgContainer.Terminate, "", NewError("get mapped port", err)
	}

	return pgContainer.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points the database configuration at the test container.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_PORT", dbPort)
	t.Setenv("DATABASE_NAME", dbName)
	t.Setenv("DATABASE_USERNAME", dbUser)
	t.Setenv("DATABASE_PASSWORD", dbPwd)
	t.Setenv("DATABASE_SCHEMA", "public")
	t.Setenv("DATABASE_SSL_MODE", "disable")
}
