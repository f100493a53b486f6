package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	apperrors "github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/linoprint/inkstock-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAlert(alertType, severity, dedupKey string) *repository.Alert {
	return &repository.Alert{
		AlertType: alertType,
		Severity:  severity,
		Message:   "test alert",
		DedupKey:  dedupKey,
	}
}

func TestAlertRepository_CreateIfAbsent_Dedup(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Truncate(t, ctx, "alerts")
	repo := repository.NewAlertRepository(suite.DB)

	key := repository.LowStockDedupKey(uuid.New().String())

	first := newAlert(repository.AlertTypeLowStock, repository.SeverityWarning, key)
	created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.CreatedAt.IsZero())

	second := newAlert(repository.AlertTypeLowStock, repository.SeverityWarning, key)
	created, err = repo.CreateIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	alerts, err := repo.List(ctx, repository.AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestAlertRepository_CreateIfAbsent_DistinctThresholds(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Truncate(t, ctx, "alerts")
	repo := repository.NewAlertRepository(suite.DB)

	batchID := uuid.New().String()

	// The same batch escalating through warning bands gets one alert per band
	for _, threshold := range []int{90, 60, 30} {
		alert := newAlert(repository.AlertTypeExpirationWarning, repository.SeverityWarning,
			repository.ExpirationDedupKey(batchID, threshold))
		created, err := repo.CreateIfAbsent(ctx, alert)
		require.NoError(t, err)
		assert.True(t, created)
	}

	alerts, err := repo.List(ctx, repository.AlertFilter{AlertType: repository.AlertTypeExpirationWarning})
	require.NoError(t, err)
	assert.Len(t, alerts, 3)
}

func TestAlertRepository_ListFilters(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Truncate(t, ctx, "alerts")
	repo := repository.NewAlertRepository(suite.DB)

	critical := newAlert(repository.AlertTypeExpired, repository.SeverityCritical,
		repository.ExpiredDedupKey(uuid.New().String()))
	warning := newAlert(repository.AlertTypeLowStock, repository.SeverityWarning,
		repository.LowStockDedupKey(uuid.New().String()))
	info := newAlert(repository.AlertTypeDeadStock, repository.SeverityInfo,
		repository.DeadStockDedupKey(uuid.New().String()))

	for _, a := range []*repository.Alert{critical, warning, info} {
		created, err := repo.CreateIfAbsent(ctx, a)
		require.NoError(t, err)
		require.True(t, created)
	}

	bySeverity, err := repo.List(ctx, repository.AlertFilter{Severity: repository.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, critical.ID, bySeverity[0].ID)

	byType, err := repo.List(ctx, repository.AlertFilter{AlertType: repository.AlertTypeDeadStock})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, info.ID, byType[0].ID)

	require.NoError(t, repo.MarkRead(ctx, warning.ID))
	unread, err := repo.List(ctx, repository.AlertFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	limited, err := repo.List(ctx, repository.AlertFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAlertRepository_ReadAndDismiss(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Truncate(t, ctx, "alerts")
	repo := repository.NewAlertRepository(suite.DB)

	alert := newAlert(repository.AlertTypeLowStock, repository.SeverityWarning,
		repository.LowStockDedupKey(uuid.New().String()))
	created, err := repo.CreateIfAbsent(ctx, alert)
	require.NoError(t, err)
	require.True(t, created)

	count, err := repo.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.MarkRead(ctx, alert.ID))
	count, err = repo.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	got, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.False(t, got.IsDismissed)

	require.NoError(t, repo.Dismiss(ctx, alert.ID))

	visible, err := repo.List(ctx, repository.AlertFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := repo.List(ctx, repository.AlertFilter{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = repo.MarkRead(ctx, uuid.New().String())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAlertRepository_MarkAllRead(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Truncate(t, ctx, "alerts")
	repo := repository.NewAlertRepository(suite.DB)

	for i := 0; i < 3; i++ {
		alert := newAlert(repository.AlertTypeLowStock, repository.SeverityWarning,
			repository.LowStockDedupKey(uuid.New().String()))
		created, err := repo.CreateIfAbsent(ctx, alert)
		require.NoError(t, err)
		require.True(t, created)
	}

	marked, err := repo.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	count, err := repo.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
