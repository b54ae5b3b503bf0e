package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// snapshotRecord is the table row for a RateSnapshot
type snapshotRecord struct {
	ID                string             `gorm:"type:uuid;primaryKey"`
	Base              string             `gorm:"type:varchar(3);not null;uniqueIndex:idx_fx_rate_snapshots_base_date"`
	Date              string             `gorm:"type:varchar(10);not null;uniqueIndex:idx_fx_rate_snapshots_base_date;index"`
	ProviderTimestamp *int64
	Provider          string             `gorm:"type:varchar(64);not null"`
	Rates             map[string]float64 `gorm:"serializer:json;type:jsonb;not null"`
	CreatedAt         time.Time
}

func (snapshotRecord) TableName() string {
	return "fx_rate_snapshots"
}

func recordFromModel(s *model.RateSnapshot) snapshotRecord {
	return snapshotRecord{
		ID:                s.ID.String(),
		Base:              s.Base,
		Date:              s.Date,
		ProviderTimestamp: s.ProviderTimestamp,
		Provider:          s.Provider,
		Rates:             s.Rates,
		CreatedAt:         s.CreatedAt,
	}
}

func (r snapshotRecord) toModel() (*model.RateSnapshot, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot id %q: %w", r.ID, err)
	}
	return &model.RateSnapshot{
		ID:                id,
		Date:              r.Date,
		Base:              r.Base,
		ProviderTimestamp: r.ProviderTimestamp,
		Provider:          r.Provider,
		Rates:             r.Rates,
		CreatedAt:         r.CreatedAt,
	}, nil
}

// NewPostgresDB opens a GORM connection that translates driver errors
// (unique violations become gorm.ErrDuplicatedKey)
func NewPostgresDB(databaseURL string, verbose bool) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if verbose {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// PostgresStore implements SnapshotStore on a table with a unique (base, date) index
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a new GORM-backed snapshot store
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the snapshot table and its unique index
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&snapshotRecord{})
}

// FindByBaseAndDate retrieves the snapshot stored for (base, date)
func (s *PostgresStore) FindByBaseAndDate(ctx context.Context, base, date string) (*model.RateSnapshot, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).Where("base = ? AND date = ?", base, date).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return rec.toModel()
}

// Insert stores a new snapshot, failing with ErrDuplicateSnapshot on conflict
func (s *PostgresStore) Insert(ctx context.Context, snapshot *model.RateSnapshot) (*model.RateSnapshot, error) {
	stored := *snapshot
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	rec := recordFromModel(&stored)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSnapshot{Base: stored.Base, Date: stored.Date}
		}
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return &stored, nil
}

// FindLatest returns the newest snapshot by date across all bases
func (s *PostgresStore) FindLatest(ctx context.Context) (*model.RateSnapshot, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).Order("date DESC").Order("created_at DESC").Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return rec.toModel()
}

// Health pings the underlying database
func (s *PostgresStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
