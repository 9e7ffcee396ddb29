package storefront

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Emitter publishes committed-search events for downstream analytics.
// A nil Emitter is valid and drops everything, so brokers stay optional.
type Emitter struct {
	client *kgo.Client
	topic  string
	log    *zap.Logger
}

type searchEvent struct {
	Owner string    `json:"owner"`
	Query string    `json:"query"`
	At    time.Time `json:"at"`
}

func NewEmitter(brokers []string, topic string, log *zap.Logger) (*Emitter, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}

	return &Emitter{client: client, topic: topic, log: log}, nil
}

// EmitCommitted is fire and forget: a broker outage must never slow a search.
// The produce is detached from the request context so the buffered record
// survives the handler returning.
func (e *Emitter) EmitCommitted(_ context.Context, owner, query string) {
	if e == nil {
		return
	}

	payload, err := json.Marshal(searchEvent{Owner: owner, Query: query, At: time.Now().UTC()})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	rec := &kgo.Record{Topic: e.topic, Key: []byte(owner), Value: payload}
	e.client.Produce(ctx, rec, func(_ *kgo.Record, err error) {
		cancel()
		if err != nil && e.log != nil {
			e.log.Warn("search event publish failed", zap.Error(err))
		}
	})
}

func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.client.Close()
}
