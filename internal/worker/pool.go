package worker

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"

	"microblog/internal/messaging"
	"microblog/internal/metrics"
	"microblog/internal/model"
)

// EventStore persists audit events drained from the queue.
type EventStore interface {
	InsertEvent(e *model.Event) error
}

// Pool drains the audit event queue with a fixed number of workers and
// persists each event through the store.
type Pool struct {
	ch      *amqp.Channel
	store   EventStore
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
}

func NewPool(rabbit *messaging.RabbitClient, store EventStore, workerCount int) (*Pool, error) {
	ch, err := rabbit.GetConnection().Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Pool{
		ch:      ch,
		store:   store,
		stopCh:  make(chan struct{}),
		workers: workerCount,
	}, nil
}

func (p *Pool) Start() error {
	log.Printf("[Worker] Starting audit pool with %d workers", p.workers)

	msgs, err := p.ch.Consume(
		messaging.EventQueue,
		"audit-pool",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.consumeLoop(msgs)
	}
	return nil
}

// consumeLoop processes deliveries until the pool is stopped
func (p *Pool) consumeLoop(msgs <-chan amqp.Delivery) {
	defer p.wg.Done()

	metrics.WorkerActive.Inc()
	defer metrics.WorkerActive.Dec()

	for {
		select {
		case <-p.stopCh:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if err := p.handleDelivery(msg); err != nil {
				log.Printf("[Worker] Failed to process event: %v", err)
				_ = msg.Reject(false) // send to DLQ
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

func (p *Pool) handleDelivery(msg amqp.Delivery) error {
	var e model.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	if err := p.store.InsertEvent(&e); err != nil {
		return err
	}

	metrics.EventsProcessed.WithLabelValues(e.Type).Inc()
	return nil
}

// Stop signals the workers and waits for them to drain.
func (p *Pool) Stop() {
	close(p.stopCh)
	_ = p.ch.Cancel("audit-pool", false)
	p.wg.Wait()
	_ = p.ch.Close()
	log.Printf("[Worker] Audit pool stopped")
}
