package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
)

func newPushRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPushSubscriptionRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newPushRepoMock(t)
	defer cleanup()

	repo := NewPushSubscriptionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO push_subscriptions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.PushSubscription{
		Endpoint: "https://push.example.com/send/abc",
		UserID:   "user-1",
		P256DH:   "p256dh-key",
		Auth:     "auth-secret",
	}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	require.False(t, sub.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSubscriptionRepositoryGetByEndpoint(t *testing.T) {
	db, mock, cleanup := newPushRepoMock(t)
	defer cleanup()

	repo := NewPushSubscriptionRepository(db)
	rows := sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
		AddRow("https://push.example.com/send/abc", "user-1", "p256dh-key", "auth-secret", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT endpoint, user_id, p256dh, auth, created_at")).
		WithArgs("https://push.example.com/send/abc").
		WillReturnRows(rows)

	sub, err := repo.GetByEndpoint(context.Background(), "https://push.example.com/send/abc")
	require.NoError(t, err)
	require.Equal(t, "user-1", sub.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSubscriptionRepositoryGetByEndpointMissing(t *testing.T) {
	db, mock, cleanup := newPushRepoMock(t)
	defer cleanup()

	repo := NewPushSubscriptionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT endpoint, user_id, p256dh, auth, created_at")).
		WithArgs("https://push.example.com/send/gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEndpoint(context.Background(), "https://push.example.com/send/gone")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSubscriptionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newPushRepoMock(t)
	defer cleanup()

	repo := NewPushSubscriptionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM push_subscriptions")).
		WithArgs("https://push.example.com/send/abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "https://push.example.com/send/abc"))
	require.NoError(t, mock.ExpectationsWereMet())
}
