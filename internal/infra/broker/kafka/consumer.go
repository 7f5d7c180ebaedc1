package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a consumer group over a fixed set of topics. A message whose
// handler keeps failing after RetryBackoff is exhausted ends the claim
// without being marked, so the group resumes from it on the next session.
type Consumer struct {
	group        sarama.ConsumerGroup
	handler      MessageHandler
	RetryBackoff []time.Duration
	Logger       *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		cfg = NewConfig("stayengine")
	}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, handler: handler}, nil
}

// Run blocks until ctx is cancelled, rejoining the group after rebalances
// and after a claim is abandoned on a failing message.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	h := consumerGroupHandler{handler: c.handler, backoff: c.RetryBackoff, logger: c.Logger}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	backoff []time.Duration
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks a message only once it is handled. Offsets are
// cumulative, so nothing after a failed message is processed in this claim.
func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handle(ctx, message); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				h.log().ErrorContext(ctx, "kafka claim abandoned", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
				return fmt.Errorf("kafka %s/%d offset %d: %w", message.Topic, message.Partition, message.Offset, err)
			}
			sess.MarkMessage(message, "")
		case <-ctx.Done():
			return nil
		}
	}
}

// handle runs the handler once, then once more after each backoff step.
func (h consumerGroupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	err := h.handler.Handle(ctx, msg)
	for _, wait := range h.backoff {
		if err == nil {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = h.handler.Handle(ctx, msg)
	}
	return err
}

func (h consumerGroupHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
