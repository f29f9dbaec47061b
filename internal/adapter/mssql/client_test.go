package mssql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err, "ошибка создания sqlmock")
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewStoreWithDB(db, "")
	require.NoError(t, err)
	return s, mock
}

// TestNewStore проверяет значения по умолчанию и валидацию параметров.
func TestNewStore(t *testing.T) {
	s, err := NewStore(ClientOptions{Server: "sql01"})
	require.NoError(t, err)
	assert.Equal(t, 1433, s.opts.Port)
	assert.Equal(t, "master", s.opts.Database)
	assert.Equal(t, DefaultTable, s.opts.Table)
	assert.Equal(t, 30*time.Second, s.opts.Timeout)
	assert.True(t, s.opts.Encrypt, "TLS включён по умолчанию")

	s, err = NewStoreWithEncrypt(ClientOptions{Server: "sql01"}, false)
	require.NoError(t, err)
	assert.False(t, s.opts.Encrypt)

	tests := []struct {
		name string
		opts ClientOptions
	}{
		{"без сервера", ClientOptions{}},
		{"неверный порт", ClientOptions{Server: "sql01", Port: 70000}},
		{"инъекция в имя таблицы", ClientOptions{Server: "sql01", Table: "x]; DROP TABLE y; --"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.opts)
			assert.ErrorContains(t, err, ErrMSSQLConfig)
		})
	}
}

func TestStore_Incr(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(s.incrQuery).
		WithArgs("alertgate:DB_DOWN:HIGH", int64(300000)).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}).AddRow(int64(3)))

	v, err := s.Incr(context.Background(), "alertgate:DB_DOWN:HIGH", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Incr_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(s.incrQuery).WillReturnError(errors.New("deadlock victim"))

	_, err := s.Incr(context.Background(), "k", time.Minute)
	assert.ErrorContains(t, err, ErrMSSQLQuery)
}

func TestStore_Incr_NullReply(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(s.incrQuery).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}).AddRow(nil))

	_, err := s.Incr(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ratelimit.ErrUnexpectedReply)
}

func TestStore_Incr_NoRows(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(s.incrQuery).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}))

	_, err := s.Incr(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_Incr_ContextDeadline(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(s.incrQuery).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}).AddRow(int64(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Incr(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_DeleteByPrefix(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(s.deletePrefixQuery).
		WithArgs(`team\_a:%`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, s.DeleteByPrefix(context.Background(), "team_a:"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteExpired(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(s.deleteExpiredQuery).WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestStore_EnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(s.ensureSchemaQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Contains(t, s.ensureSchemaQuery, "[dbo].[alertgate_counters]")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("network unreachable"))
	assert.ErrorContains(t, s.Ping(context.Background()), ErrMSSQLConnect)
}

func TestStore_NotConnected(t *testing.T) {
	s, err := NewStore(ClientOptions{Server: "sql01"})
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorContains(t, s.Ping(ctx), "connection not established")
	_, err = s.Incr(ctx, "k", time.Minute)
	assert.Error(t, err)
	assert.Error(t, s.DeleteByPrefix(ctx, "p"))
	_, err = s.DeleteExpired(ctx)
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

func TestStore_Close(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectClose()
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "повторный Close безопасен")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStore_AsDistributedBackend: Store как хранилище Distributed, ошибка запроса уходит в fallback.
func TestStore_AsDistributedBackend(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(s.incrQuery).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}).AddRow(int64(1)))
	mock.ExpectQuery(s.incrQuery).
		WillReturnRows(sqlmock.NewRows([]string{"counter_value"}).AddRow(int64(2)))
	mock.ExpectQuery(s.incrQuery).WillReturnError(errors.New("connection reset"))

	d, err := ratelimit.NewDistributed(ratelimit.DefaultPolicy(), s,
		ratelimit.NewCacheWithTTL(ratelimit.DefaultPolicy()))
	require.NoError(t, err)
	key := ratelimit.Key{Code: "X", Severity: ratelimit.SeverityInfo}

	assert.True(t, d.Allow(context.Background(), key))
	assert.False(t, d.Allow(context.Background(), key))
	assert.True(t, d.Allow(context.Background(), key), "fallback со своей квотой")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\d\[e`, escapeLike(`a_b%c\d[e`))
	assert.Equal(t, "alertgate:", escapeLike("alertgate:"))
}

func TestEscapeConnStringParam(t *testing.T) {
	assert.Equal(t, "p%3Bw%3Dd", escapeConnStringParam("p;w=d"))
}
