//go:build integration

package userstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "goguard",
				"POSTGRES_PASSWORD": "goguard",
				"POSTGRES_DB":       "goguard",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://goguard:goguard@%s:%s/goguard?sslmode=disable", host, port.Port())
	s, err := Open(ctx, Postgres, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())

	created, err := s.CreateUser(ctx, goGuard.CreateUserInput{Email: "pg@example.com", Name: "Pg", PasswordHash: "h"})
	require.NoError(t, err)

	got, err := s.GetUserByEmail(ctx, "PG@example.com")
	require.NoError(t, err)
	require.Equal(t, created.UserID, got.UserID)

	_, err = s.CreateUser(ctx, goGuard.CreateUserInput{Email: "pg@example.com", Name: "Pg", PasswordHash: "h"})
	require.ErrorIs(t, err, goGuard.ErrAccountExists)
}
