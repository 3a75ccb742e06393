// Package kafka builds the franz-go client used by the event publisher.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"bondline/internal/platform/config"
)

// New connects a producer client to the configured brokers and makes sure
// the event topic exists. It returns nil when no brokers are configured.
func New(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	if err := EnsureTopic(ctx, client, cfg.Topic, cfg.Partitions); err != nil {
		client.Close()
		return nil, err
	}
	if logger != nil {
		logger.InfoContext(ctx, "kafka event stream ready", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}
	return client, nil
}

// EnsureTopic creates topic with the broker's default replication factor.
// An existing topic is left as is.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	_, err := kadm.NewClient(client).CreateTopic(ctx, partitions, -1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}
