package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var snapshotColumns = []string{"id", "base", "date", "provider_timestamp", "provider", "rates", "created_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewPostgresStore(db), mock
}

func TestPostgresStore_FindByBaseAndDate(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "fx_rate_snapshots" WHERE base = \$1 AND date = \$2`).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow(id.String(), "USD", "2024-01-01", int64(1704067200), "openexchangerates", []byte(`{"PKR":280,"EUR":0.9}`), time.Now()))

	snap, err := store.FindByBaseAndDate(context.Background(), "USD", "2024-01-01")

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "USD", snap.Base)
	assert.Equal(t, 280.0, snap.Rates["PKR"])
	require.NotNil(t, snap.ProviderTimestamp)
	assert.Equal(t, int64(1704067200), *snap.ProviderTimestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByBaseAndDate_Miss(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "fx_rate_snapshots"`).
		WillReturnRows(sqlmock.NewRows(snapshotColumns))

	snap, err := store.FindByBaseAndDate(context.Background(), "USD", "2024-01-01")

	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestPostgresStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "fx_rate_snapshots"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	stored, err := store.Insert(context.Background(), &model.RateSnapshot{
		Base:     "USD",
		Date:     "2024-01-01",
		Provider: "openexchangerates",
		Rates:    map[string]float64{"PKR": 280},
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert_UniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "fx_rate_snapshots"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := store.Insert(context.Background(), &model.RateSnapshot{
		Base:  "USD",
		Date:  "2024-01-01",
		Rates: map[string]float64{"PKR": 280},
	})

	var dup ErrDuplicateSnapshot
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "USD", dup.Base)
	assert.Equal(t, "2024-01-01", dup.Date)
}

func TestPostgresStore_Insert_OtherError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "fx_rate_snapshots"`).
		WillReturnError(errors.New("connection reset"))

	_, err := store.Insert(context.Background(), &model.RateSnapshot{Base: "USD", Date: "2024-01-01"})

	require.Error(t, err)
	var dup ErrDuplicateSnapshot
	assert.False(t, errors.As(err, &dup))
}

func TestPostgresStore_FindLatest(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "fx_rate_snapshots" ORDER BY date DESC,created_at DESC`).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow(id.String(), "EUR", "2023-12-30", nil, "openexchangerates", `{"USD":1.1}`, time.Now()))

	snap, err := store.FindLatest(context.Background())

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "EUR", snap.Base)
	assert.Nil(t, snap.ProviderTimestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindLatest_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "fx_rate_snapshots"`).
		WillReturnRows(sqlmock.NewRows(snapshotColumns))

	snap, err := store.FindLatest(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, snap)
}
