package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cravecart/internal/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Broker fans order events out to every instance through a fanout exchange.
type Broker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *logrus.Entry
}

func Connect(url, exchange string, log *logrus.Entry) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.WithField("exchange", exchange).Info("connected to rabbitmq")
	return &Broker{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

func (b *Broker) Close() {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Broker) Publish(ctx context.Context, ev events.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = b.channel.PublishWithContext(ctx,
		b.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    ev.At,
		})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// Listen consumes events from other instances through an exclusive queue and
// hands each decoded event to handle. It returns when ctx is done.
func (b *Broker) Listen(ctx context.Context, handle func(events.OrderEvent)) error {
	q, err := b.channel.QueueDeclare(
		"",    // name (let server generate)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := b.channel.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	messages, err := b.channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	b.log.WithField("queue", q.Name).Info("listening for order events")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			ev, err := Decode(msg.Body)
			if err != nil {
				b.log.WithError(err).Warn("dropping malformed order event")
				continue
			}
			handle(ev)
		}
	}
}

func Decode(body []byte) (events.OrderEvent, error) {
	var ev events.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return events.OrderEvent{}, err
	}
	if ev.Type == "" {
		return events.OrderEvent{}, fmt.Errorf("event has no type")
	}
	return ev, nil
}
