package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ delivers job ids over a durable queue with manual acks.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	prefetch int
	log      *zap.Logger
}

func NewRabbitMQ(url, queue string, prefetch int, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &RabbitMQ{
		conn:     conn,
		ch:       ch,
		queue:    queue,
		prefetch: prefetch,
		log:      log.Named("job.queue.rabbitmq"),
	}, nil
}

func (q *RabbitMQ) Publish(ctx context.Context, jobID snowflake.ID) error {
	return q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		MessageId:    jobID.String(),
		Body:         []byte(jobID.String()),
	})
}

func (q *RabbitMQ) Consume(ctx context.Context) (<-chan jobdomain.Delivery, error) {
	msgs, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	out := make(chan jobdomain.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				id, err := strconv.ParseInt(string(d.Body), 10, 64)
				if err != nil {
					q.log.Warn("dropping malformed job message", zap.ByteString("body", d.Body))
					_ = d.Nack(false, false)
					continue
				}
				select {
				case out <- &rabbitDelivery{d: d, id: snowflake.ID(id)}:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (q *RabbitMQ) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

type rabbitDelivery struct {
	d  amqp.Delivery
	id snowflake.ID
}

func (r *rabbitDelivery) JobID() snowflake.ID     { return r.id }
func (r *rabbitDelivery) Ack() error              { return r.d.Ack(false) }
func (r *rabbitDelivery) Nack(requeue bool) error { return r.d.Nack(false, requeue) }
