package kafka

import (
	"context"
	"sort"

	"github.com/IBM/sarama"
)

// Producer publishes outbox records synchronously with idempotent, fully
// acknowledged writes.
type Producer struct {
	sync sarama.SyncProducer
}

func NewConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_5_0_0
	return cfg
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newProducer(sync), nil
}

func newProducer(sync sarama.SyncProducer) *Producer {
	return &Producer{sync: sync}
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.sync.SendMessage(newMessage(topic, key, payload, headers))
	return err
}

func newMessage(topic, key string, payload []byte, headers map[string]string) *sarama.ProducerMessage {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	hs := make([]sarama.RecordHeader, 0, len(names))
	for _, k := range names {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(headers[k])})
	}
	return &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
