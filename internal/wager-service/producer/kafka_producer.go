package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/fantasy-wager-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	PlacedWriter   *kafka.Writer
	AcceptedWriter *kafka.Writer
}

func NewKafkaPublisher(placed, accepted *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{PlacedWriter: placed, AcceptedWriter: accepted}
}

func (p *KafkaPublisher) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.PlacedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.WagerID), Value: b})
}

func (p *KafkaPublisher) PublishWagerAccepted(ctx context.Context, e events.WagerAccepted) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.AcceptedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.WagerID), Value: b})
}
