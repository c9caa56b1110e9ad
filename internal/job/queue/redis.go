package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPollTimeout = 2 * time.Second

// Redis is a reliable list queue: BLMOVE parks a message on a processing list
// until it is acked.
type Redis struct {
	client     *redis.Client
	pending    string
	processing string
	log        *zap.Logger
}

func NewRedis(url, queue string, log *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opts), queue, log), nil
}

func NewRedisWithClient(client *redis.Client, queue string, log *zap.Logger) *Redis {
	return &Redis{
		client:     client,
		pending:    queue,
		processing: queue + ":processing",
		log:        log.Named("job.queue.redis"),
	}
}

func (q *Redis) Publish(ctx context.Context, jobID snowflake.ID) error {
	return q.client.LPush(ctx, q.pending, jobID.String()).Err()
}

func (q *Redis) Consume(ctx context.Context) (<-chan jobdomain.Delivery, error) {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	out := make(chan jobdomain.Delivery)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			raw, err := q.client.BLMove(ctx, q.pending, q.processing, "RIGHT", "LEFT", redisPollTimeout).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.log.Warn("blmove failed", zap.Error(err))
				time.Sleep(redisPollTimeout)
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				q.log.Warn("dropping malformed job message", zap.String("body", raw))
				q.client.LRem(context.Background(), q.processing, 1, raw)
				continue
			}
			d := &redisDelivery{queue: q, raw: raw, id: snowflake.ID(id)}
			select {
			case out <- d:
			case <-ctx.Done():
				_ = d.Nack(true)
				return
			}
		}
	}()
	return out, nil
}

func (q *Redis) Close() error {
	return q.client.Close()
}

type redisDelivery struct {
	queue *Redis
	raw   string
	id    snowflake.ID
}

func (d *redisDelivery) JobID() snowflake.ID { return d.id }

func (d *redisDelivery) Ack() error {
	return d.queue.client.LRem(context.Background(), d.queue.processing, 1, d.raw).Err()
}

func (d *redisDelivery) Nack(requeue bool) error {
	ctx := context.Background()
	_, err := d.queue.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, d.queue.processing, 1, d.raw)
		if requeue {
			pipe.RPush(ctx, d.queue.pending, d.raw)
		}
		return nil
	})
	return err
}
