//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"bondline/internal/events"
	"bondline/internal/platform/config"
	"bondline/internal/platform/kafka"
	"bondline/pkg/domain"
	"bondline/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
	client *kgo.Client
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) TearDownTest() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *KafkaPublisherSuite) connect(topic string) {
	ctx := context.Background()
	client, err := kafka.New(ctx, config.KafkaConfig{
		Brokers:    s.broker.Brokers,
		Topic:      topic,
		Partitions: 3,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.client = client
}

func (s *KafkaPublisherSuite) consume(topic string, want int) []*kgo.Record {
	consumer := s.broker.Consumer(s.T(), topic)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var out []*kgo.Record
	for len(out) < want {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out after %d of %d records", len(out), want)
		fetches.EachRecord(func(r *kgo.Record) {
			out = append(out, r)
		})
	}
	return out
}

func (s *KafkaPublisherSuite) TestEventsAreKeyedByIdentity() {
	const topic = "bondline.ledger.keyed"
	s.connect(topic)

	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	credited := events.New(events.StakeCredited, 7, at)
	credited.Amount = 1000
	slashed := events.New(events.StakeSlashed, 7, at.Add(time.Minute))
	slashed.Amount = 400
	proof := events.New(events.ProofApplied, 9, at).With("proof_type", "kyc")

	pub := events.NewKafkaPublisher(s.client, topic)
	s.Require().NoError(pub.Publish(context.Background(), credited, slashed, proof))

	records := s.consume(topic, 3)
	byKey := map[string][]events.Event{}
	for _, r := range records {
		var e events.Event
		s.Require().NoError(json.Unmarshal(r.Value, &e))
		s.Equal(string(e.Type), headerValue(r, "event_type"))
		byKey[string(r.Key)] = append(byKey[string(r.Key)], e)
	}

	s.Require().Len(byKey["7"], 2)
	s.Equal(events.StakeCredited, byKey["7"][0].Type)
	s.Equal(events.StakeSlashed, byKey["7"][1].Type)
	s.Equal(domain.Amount(400), byKey["7"][1].Amount)
	s.Require().Len(byKey["9"], 1)
	s.Equal("kyc", byKey["9"][0].Attributes["proof_type"])
}

func (s *KafkaPublisherSuite) TestEnsureTopicIsIdempotent() {
	const topic = "bondline.ledger.ensure"
	s.connect(topic)
	s.NoError(kafka.EnsureTopic(context.Background(), s.client, topic, 3))
}

func (s *KafkaPublisherSuite) TestBufferedForwardsToKafka() {
	const topic = "bondline.ledger.buffered"
	s.connect(topic)

	buffered := events.NewBuffered(events.NewKafkaPublisher(s.client, topic), 16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- buffered.Run(ctx) }()

	s.Require().NoError(buffered.Publish(ctx, events.New(events.ClaimSubmitted, 3, time.Now())))
	records := s.consume(topic, 1)
	cancel()
	s.Require().NoError(<-done)

	s.Equal("3", string(records[0].Key))
	s.Zero(buffered.Dropped())
}

func headerValue(r *kgo.Record, key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
