package worker

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularstore/admin-api/internal/queue"
	"github.com/modularstore/admin-api/internal/repository"
)

func TestCutoff(t *testing.T) {
	w := NewPurgeWorker(nil, time.Minute, nil)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	cutoff := w.Cutoff(now)
	assert.Equal(t, now.Add(-24*time.Hour), cutoff)

	// Eligibility mirrors the purge predicate deleted_at <= cutoff: a
	// row recycled 24h+1s ago is purged, one recycled exactly 24h ago
	// is purged, and one recycled 24h-1s ago survives this sweep.
	expired := now.Add(-Retention - time.Second)
	onBoundary := now.Add(-Retention)
	fresh := now.Add(-Retention + time.Second)
	assert.False(t, expired.After(cutoff))
	assert.False(t, onBoundary.After(cutoff))
	assert.True(t, fresh.After(cutoff))
}

func TestRunOncePublishesSweepEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tabel_product_data WHERE is_deleted=1 AND deleted_at<=(.+)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	var published queue.ProductLifecycleEvent
	w := NewPurgeWorker(repository.NewProductRepo(db), time.Minute,
		func(ctx context.Context, event queue.ProductLifecycleEvent) error {
			published = event
			return nil
		})

	count, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, queue.ActionPurged, published.Action)
	assert.Equal(t, "sweep", published.Source)
	assert.Equal(t, int64(2), published.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOnceNothingExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM tabel_product_data WHERE is_deleted=1 AND deleted_at<=(.+)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := NewPurgeWorker(repository.NewProductRepo(db), time.Minute,
		func(ctx context.Context, event queue.ProductLifecycleEvent) error {
			t.Fatal("must not publish when nothing was purged")
			return nil
		})

	count, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
