package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	snapshotKeyPrefix = "fx:snapshot:"
	snapshotIndexKey  = "fx:snapshot:index"
)

// insertScript writes the snapshot only if its key is free and indexes it by day,
// atomically. Returns 0 when the key already exists.
var insertScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], KEYS[1])
return 1
`)

// RedisStore implements SnapshotStore using Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed snapshot store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// snapshotKey generates the Redis key for a snapshot
func snapshotKey(base, date string) string {
	return fmt.Sprintf("%s%s:%s", snapshotKeyPrefix, base, date)
}

// dayScore orders snapshots by calendar day in the index
func dayScore(date string) (float64, error) {
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot date %q: %w", date, err)
	}
	return float64(day.Unix() / 86400), nil
}

// FindByBaseAndDate retrieves the snapshot stored for (base, date)
func (r *RedisStore) FindByBaseAndDate(ctx context.Context, base, date string) (*model.RateSnapshot, error) {
	return r.get(ctx, snapshotKey(base, date))
}

// Insert stores a new snapshot, failing with ErrDuplicateSnapshot on conflict
func (r *RedisStore) Insert(ctx context.Context, snapshot *model.RateSnapshot) (*model.RateSnapshot, error) {
	score, err := dayScore(snapshot.Date)
	if err != nil {
		return nil, err
	}

	stored := *snapshot
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := snapshotKey(stored.Base, stored.Date)
	written, err := insertScript.Run(ctx, r.client, []string{key, snapshotIndexKey}, data, score).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if written == 0 {
		return nil, ErrDuplicateSnapshot{Base: stored.Base, Date: stored.Date}
	}

	return &stored, nil
}

// FindLatest returns the snapshot with the highest day score
func (r *RedisStore) FindLatest(ctx context.Context) (*model.RateSnapshot, error) {
	keys, err := r.client.ZRevRange(ctx, snapshotIndexKey, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot index: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return r.get(ctx, keys[0])
}

// Health checks if Redis is healthy
func (r *RedisStore) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) get(ctx context.Context, key string) (*model.RateSnapshot, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot model.RateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
