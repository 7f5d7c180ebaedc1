package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "stayengine.events"
	exchangeKind    = "topic"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Producer publishes outbox records to a topic exchange. The outbox topic
// becomes the routing key.
type Producer struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
	closer   func() error
}

func NewProducer(url, exchange string) (*Producer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p := &Producer{conn: conn, channel: ch, exchange: exchange}
	p.closer = func() error {
		chErr := ch.Close()
		if err := conn.Close(); err != nil {
			return err
		}
		return chErr
	}
	return p, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := p.channel.PublishWithContext(ctx, p.exchange, topic, false, false, newPublishing(key, payload, headers)); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", topic, err)
	}
	return nil
}

func newPublishing(key string, payload []byte, headers map[string]string) amqp.Publishing {
	table := amqp.Table{"partition_key": key}
	contentType := "application/json"
	for k, v := range headers {
		if k == "content-type" {
			contentType = v
			continue
		}
		table[k] = v
	}
	return amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		Headers:      table,
		Body:         payload,
	}
}

func (p *Producer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
