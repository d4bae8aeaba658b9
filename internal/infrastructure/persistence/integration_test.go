//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/migration"
)

func setupPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("billsync_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrator, err := migration.New(sqlDB, nil)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db
}

func TestIntegration_UpdateStatusIfVersion_SingleWinnerPerVersion(t *testing.T) {
	db := setupPostgresTestDB(t)
	repo := NewGormContactRepository(db)
	ctx := context.Background()

	contact, err := billing.NewFirstSeenContact("t1", "cus_1", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, contact))

	const writers = 16
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := *contact
			attempt.BillingStatus = billing.BillingStatusOverdue
			attempt.StatusUpdatedAt = base.Add(time.Duration(i) * time.Minute)
			err := repo.UpdateStatusIfVersion(ctx, &attempt)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, shared.ErrConcurrencyConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())

	stored, err := repo.FindByExternalID(ctx, "t1", "cus_1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
}

func TestIntegration_UpdateStatusIfVersion_RetryConvergesToLatest(t *testing.T) {
	db := setupPostgresTestDB(t)
	repo := NewGormContactRepository(db)
	ctx := context.Background()

	contact, err := billing.NewFirstSeenContact("t1", "cus_1", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, contact))

	const writers = 8
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	latest := base.Add(time.Duration(writers-1) * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(eventTime time.Time) {
			defer wg.Done()
			for {
				current, err := repo.FindByExternalID(ctx, "t1", "cus_1")
				if !assert.NoError(t, err) {
					return
				}
				if eventTime.Before(current.StatusUpdatedAt) {
					return
				}
				current.BillingStatus = billing.BillingStatusPaid
				current.StatusUpdatedAt = eventTime
				err = repo.UpdateStatusIfVersion(ctx, current)
				if err == nil {
					return
				}
				if !errors.Is(err, shared.ErrConcurrencyConflict) {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}(base.Add(time.Duration(i) * time.Minute))
	}
	wg.Wait()

	stored, err := repo.FindByExternalID(ctx, "t1", "cus_1")
	require.NoError(t, err)
	assert.True(t, latest.Equal(stored.StatusUpdatedAt), "status time should converge to the latest event")
	assert.Equal(t, billing.BillingStatusPaid, stored.BillingStatus)
}

func TestIntegration_Create_DuplicateExternalIDTranslated(t *testing.T) {
	db := setupPostgresTestDB(t)
	repo := NewGormContactRepository(db)
	ctx := context.Background()

	first, err := billing.NewFirstSeenContact("t1", "cus_1", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewFirstSeenContact("t1", "cus_1", "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, second), shared.ErrAlreadyExists)
}
