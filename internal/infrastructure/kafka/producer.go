package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cravecart/internal/events"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// Producer writes the lifecycle audit stream, keyed by order id so every
// change of one order lands on the same partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // Must be true for SyncProducer
	cfg.Net.DialTimeout = 30 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

func NewProducer(brokerList, topic string, log *logrus.Entry) (*Producer, error) {
	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	log.WithField("brokers", brokers).Info("kafka producer created")
	return NewProducerFrom(producer, topic), nil
}

func NewProducerFrom(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

func (p *Producer) Publish(_ context.Context, ev events.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(ev.OrderID.String()),
		Value:     sarama.ByteEncoder(body),
		Timestamp: ev.At,
	})
	if err != nil {
		return fmt.Errorf("send to topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
