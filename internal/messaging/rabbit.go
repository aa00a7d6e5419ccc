// internal/messaging/rabbit.go
package messaging

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"

	"microblog/internal/metrics"
	"microblog/internal/model"
)

const (
	// EventQueue carries account and message lifecycle events to the audit
	// worker pool.
	EventQueue = "message_events"
	eventDLQ   = "message_events_dlq"
)

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareEventQueue creates the durable event queue with its DLQ binding
func (r *RabbitClient) DeclareEventQueue() error {
	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		eventDLQ,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": eventDLQ,
	}
	_, err = r.channel.QueueDeclare(
		EventQueue,
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}

	log.Printf("[Rabbit] Event queue declared")
	return nil
}

// PublishEvent sends an event envelope to the audit queue
func (r *RabbitClient) PublishEvent(e model.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = r.channel.Publish(
		"",         // default exchange
		EventQueue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", e.Type, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth() {
	q, err := r.channel.QueueInspect(EventQueue)
	if err != nil {
		log.Printf("[Rabbit] Failed to inspect event queue: %v", err)
		return
	}

	metrics.QueueDepth.Set(float64(q.Messages))
}
