package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sharebite/internal/models"

	amqp "github.com/streadway/amqp"
)

// DonationQueue is the durable queue donation lifecycle events are routed to.
const DonationQueue = "donation_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp.Channel is not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares DonationQueue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	slog.Info("RabbitMQ client connected", "queue", DonationQueue)
	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		DonationQueue, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", DonationQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishDonationEvent publishes event as a persistent JSON message.
func (c *Client) PublishDonationEvent(event models.DonationEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",            // default exchange
		DonationQueue, // routing key: the queue name
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeDonationEvents delivers each event on DonationQueue to handler in a
// background goroutine. Messages are acked when handler returns nil. Bodies
// that cannot be decoded are dropped; other handler errors requeue the message.
func (c *Client) ConsumeDonationEvents(handler func(models.DonationEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		DonationQueue, // queue
		"",            // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()
	return nil
}

// acknowledger is the subset of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(models.DonationEvent) error) {
	settle(msg, msg.Body, msg.DeliveryTag, handler)
}

func settle(ack acknowledger, body []byte, tag uint64, handler func(models.DonationEvent) error) {
	event, err := DecodeEvent(body)
	if err != nil {
		slog.Error("dropping undecodable donation event", "delivery_tag", tag, "error", err)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			slog.Error("error nacking message", "delivery_tag", tag, "error", nackErr)
		}
		return
	}

	if err := handler(event); err != nil {
		slog.Error("error processing donation event", "delivery_tag", tag, "error", err)
		if nackErr := ack.Nack(false, true); nackErr != nil {
			slog.Error("error nacking message", "delivery_tag", tag, "error", nackErr)
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		slog.Error("error acking message", "delivery_tag", tag, "error", ackErr)
	}
}

// EncodeEvent marshals event to its wire form.
func EncodeEvent(event models.DonationEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal donation event: %w", err)
	}
	return body, nil
}

// DecodeEvent parses a wire-form donation event.
func DecodeEvent(body []byte) (models.DonationEvent, error) {
	var event models.DonationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.DonationEvent{}, fmt.Errorf("failed to unmarshal donation event: %w", err)
	}
	if event.Type == "" {
		return models.DonationEvent{}, fmt.Errorf("donation event has no type")
	}
	return event, nil
}

// LogDonationEvent is the default consumer handler: it records the event.
func LogDonationEvent(event models.DonationEvent) error {
	slog.Info("donation event received",
		"type", event.Type,
		"donation_id", event.DonationID,
		"user_id", event.UserID,
		"food_name", event.FoodName,
	)
	return nil
}
