// Package schedule registers the routine triggers of published flows with a schedule store.
// It only records when each routine branch is due; firing the flow is left to the task scheduler.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/redis/go-redis/v9"
)

var ErrScheduleNotFound = fmt.Errorf("schedule %w", models.ErrNotFound)

const (
	keyPrefix   = "flowforge:schedule:"
	flowPrefix  = "flowforge:flow_schedules:"
	dueSetKey   = "flowforge:schedules:due"
	pingTimeout = 5 * time.Second
)

// Store keeps schedule registrations.
type Store interface {
	Save(ctx context.Context, schedule *models.Schedule) error
	Get(ctx context.Context, id string) (*models.Schedule, error)
	ListByFlow(ctx context.Context, flowCode string) ([]*models.Schedule, error)
	Delete(ctx context.Context, id string) error
	Due(ctx context.Context, now time.Time, limit int64) ([]*models.Schedule, error)
}

// RedisStore stores each schedule as a JSON value, indexes it per flow in a set
// and orders active schedules by next due time in a sorted set.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store using an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func scheduleKey(id string) string {
	return keyPrefix + id
}

func flowKey(flowCode string) string {
	return flowPrefix + flowCode
}

func (s *RedisStore) Save(ctx context.Context, schedule *models.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, scheduleKey(schedule.ID), data, 0)
	pipe.SAdd(ctx, flowKey(schedule.FlowCode), schedule.ID)

	if schedule.Active {
		pipe.ZAdd(ctx, dueSetKey, redis.Z{Score: float64(schedule.NextDueAt.Unix()), Member: schedule.ID})
	} else {
		pipe.ZRem(ctx, dueSetKey, schedule.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Schedule, error) {
	data, err := s.client.Get(ctx, scheduleKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrScheduleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	var schedule models.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}

	return &schedule, nil
}

func (s *RedisStore) ListByFlow(ctx context.Context, flowCode string) ([]*models.Schedule, error) {
	ids, err := s.client.SMembers(ctx, flowKey(flowCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	return s.getMany(ctx, ids)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, scheduleKey(id))
	pipe.SRem(ctx, flowKey(schedule.FlowCode), id)
	pipe.ZRem(ctx, dueSetKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	return nil
}

// Due returns up to limit active schedules whose next due time is not after now, earliest first.
func (s *RedisStore) Due(ctx context.Context, now time.Time, limit int64) ([]*models.Schedule, error) {
	ids, err := s.client.ZRangeByScore(ctx, dueSetKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}

	return s.getMany(ctx, ids)
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) getMany(ctx context.Context, ids []string) ([]*models.Schedule, error) {
	schedules := make([]*models.Schedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := s.Get(ctx, id)
		if errors.Is(err, ErrScheduleNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		schedules = append(schedules, schedule)
	}

	return schedules, nil
}
