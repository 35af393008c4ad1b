package render

import (
	"context"

	"github.com/sirupsen/logrus"

	"giggle/kafka"
	"giggle/types"
)

// ConsumerConfig holds the render worker's Kafka wiring.
type ConsumerConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	Processor *Processor
}

// NewConsumer creates the consumer for the render-requests topic.
func NewConsumer(config ConsumerConfig) (*kafka.Consumer, error) {
	handler := &kafka.TypedMessageHandler[types.RenderRequest]{
		Validate: func(req *types.RenderRequest) bool {
			if req.UUID == "" || req.PageID == "" {
				logrus.Warn("render request missing uuid or page id, skipping")
				return false
			}
			if req.Script == "" {
				logrus.WithField("uuid", req.UUID).Warn("render request has no script, skipping")
				return false
			}
			return true
		},
		Process: func(ctx context.Context, req *types.RenderRequest) error {
			return config.Processor.Process(ctx, req)
		},
		AlwaysMark: true,
	}

	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
		Handler: handler,
	})
}
