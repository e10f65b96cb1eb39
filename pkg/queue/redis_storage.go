package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisconn "github.com/dmitrymomot/subscribe/pkg/redis"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage keeps tasks in Redis.
//
// Keys:
//
//	{prefix}:task:{id}            task JSON
//	{prefix}:{queue}:pending      sorted set scored by ScheduledAt (unix ms)
//	{prefix}:{queue}:processing   sorted set scored by LockedUntil (unix ms)
//	{prefix}:dlq                  list of DeadTask JSON
//
// Claims run as a Lua script so moving an ID from pending to processing is atomic.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// claimScript requeues expired locks, then moves the oldest due task to processing.
var claimScript = redis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1])
for _, id in ipairs(expired) do
	redis.call('ZREM', KEYS[2], id)
	redis.call('ZADD', KEYS[1], ARGV[1], id)
end
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
	return false
end
redis.call('ZREM', KEYS[1], ids[1])
redis.call('ZADD', KEYS[2], ARGV[2], ids[1])
return ids[1]
`)

// NewRedisStorage creates a Redis-backed queue storage. An empty prefix defaults to "queue".
func NewRedisStorage(client redis.UniversalClient, prefix string) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrRepositoryNil
	}
	if prefix == "" {
		prefix = "queue"
	}
	return &RedisStorage{client: client, prefix: prefix}, nil
}

// OpenRedisStorage connects to Redis and returns a storage using prefix for its keys.
func OpenRedisStorage(ctx context.Context, cfg redisconn.Config, prefix string) (*RedisStorage, error) {
	client, err := redisconn.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisStorage(client, prefix)
}

// Healthcheck returns a ping probe for the underlying client.
func (s *RedisStorage) Healthcheck() func(context.Context) error {
	return redisconn.Healthcheck(s.client)
}

func (s *RedisStorage) taskKey(id uuid.UUID) string { return s.prefix + ":task:" + id.String() }
func (s *RedisStorage) pendingKey(q string) string  { return s.prefix + ":" + q + ":pending" }
func (s *RedisStorage) processingKey(q string) string {
	return s.prefix + ":" + q + ":processing"
}
func (s *RedisStorage) dlqKey() string { return s.prefix + ":dlq" }

func (s *RedisStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrTaskNil
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.taskKey(task.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	return s.client.ZAdd(ctx, s.pendingKey(task.Queue), redis.Z{
		Score:  float64(task.ScheduledAt.UnixMilli()),
		Member: task.ID.String(),
	}).Err()
}

func (s *RedisStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := time.Now()
	lockUntil := now.Add(lockDuration)

	for _, q := range queues {
		res, err := claimScript.Run(ctx, s.client,
			[]string{s.pendingKey(q), s.processingKey(q)},
			now.UnixMilli(), lockUntil.UnixMilli(),
		).Text()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to claim task: %w", err)
		}

		id, err := uuid.Parse(res)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q: %w", res, err)
		}

		task, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		task.Status = TaskStatusProcessing
		task.LockedUntil = &lockUntil
		task.LockedBy = &workerID
		if err := s.save(ctx, s.client, task); err != nil {
			return nil, err
		}
		return task, nil
	}

	return nil, ErrNoTaskToClaim
}

func (s *RedisStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.claimed(ctx, taskID)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.processingKey(task.Queue), taskID.String())
		pipe.Del(ctx, s.taskKey(taskID))
		return nil
	})
	return err
}

func (s *RedisStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	task, err := s.claimed(ctx, taskID)
	if err != nil {
		return err
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.processingKey(task.Queue), taskID.String())
		if task.RetryCount >= task.MaxRetries {
			task.Status = TaskStatusFailed
		} else {
			task.Status = TaskStatusPending
			task.ScheduledAt = time.Now().Add(retryBackoff(task.RetryCount))
			pipe.ZAdd(ctx, s.pendingKey(task.Queue), redis.Z{
				Score:  float64(task.ScheduledAt.UnixMilli()),
				Member: taskID.String(),
			})
		}
		return s.save(ctx, pipe, task)
	})
	return err
}

func (s *RedisStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(newDeadTask(task))
	if err != nil {
		return fmt.Errorf("failed to marshal dead task: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.pendingKey(task.Queue), taskID.String())
		pipe.ZRem(ctx, s.processingKey(task.Queue), taskID.String())
		pipe.Del(ctx, s.taskKey(taskID))
		pipe.RPush(ctx, s.dlqKey(), data)
		return nil
	})
	return err
}

func (s *RedisStorage) CountTasks(ctx context.Context, queue string) (int, error) {
	var pending, processing *redis.IntCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pending = pipe.ZCard(ctx, s.pendingKey(queue))
		processing = pipe.ZCard(ctx, s.processingKey(queue))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return int(pending.Val() + processing.Val()), nil
}

func (s *RedisStorage) load(ctx context.Context, id uuid.UUID) (*Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// claimed loads a task and verifies it is held in the processing set.
func (s *RedisStorage) claimed(ctx context.Context, id uuid.UUID) (*Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.client.ZScore(ctx, s.processingKey(task.Queue), id.String()).Err()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotProcessing, id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *RedisStorage) save(ctx context.Context, c redis.Cmdable, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	return c.Set(ctx, s.taskKey(task.ID), data, 0).Err()
}
