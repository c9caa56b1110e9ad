package queue

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
)

// Memory is an in-process queue. Nacked deliveries with requeue go back to
// the tail.
type Memory struct {
	closeMu sync.RWMutex
	closed  bool
	ch      chan snowflake.ID

	mu    sync.Mutex
	acked int
}

func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 128
	}
	return &Memory{ch: make(chan snowflake.ID, buffer)}
}

func (m *Memory) Publish(ctx context.Context, jobID snowflake.ID) error {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return jobdomain.ErrQueueClosed
	}
	select {
	case m.ch <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context) (<-chan jobdomain.Delivery, error) {
	out := make(chan jobdomain.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-m.ch:
				if !ok {
					return
				}
				select {
				case out <- &memoryDelivery{queue: m, id: id}:
				case <-ctx.Done():
					_ = m.Publish(context.Background(), id)
					return
				}
			}
		}
	}()
	return out, nil
}

// Acked reports how many deliveries were acknowledged.
func (m *Memory) Acked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked
}

func (m *Memory) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	return nil
}

type memoryDelivery struct {
	queue *Memory
	id    snowflake.ID
}

func (d *memoryDelivery) JobID() snowflake.ID { return d.id }

func (d *memoryDelivery) Ack() error {
	d.queue.mu.Lock()
	d.queue.acked++
	d.queue.mu.Unlock()
	return nil
}

func (d *memoryDelivery) Nack(requeue bool) error {
	if !requeue {
		return nil
	}
	return d.queue.Publish(context.Background(), d.id)
}
