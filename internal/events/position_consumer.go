package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/domain/geo"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	"github.com/wayfinder-mobility/service-navigation/internal/kafka"
)

// PositionSink receives position samples pulled off the positions topic.
// Satisfied by the navigation application service.
type PositionSink interface {
	HandlePosition(ctx context.Context, sample navigation.Position) (*navigation.Snapshot, error)
}

// PositionEventConsumer listens to the positions topic and feeds samples
// into the navigation service.
type PositionEventConsumer struct {
	consumer *kafka.Consumer
	service  PositionSink
	logger   *zap.Logger
}

// NewPositionEventConsumer creates a new PositionEventConsumer reading from
// the given positions topic.
func NewPositionEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	service PositionSink,
	logger *zap.Logger,
) *PositionEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, topic, logger)
	return &PositionEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming position samples. This blocks until the context is
// cancelled.
func (c *PositionEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PositionEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PositionEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from positions topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PositionSampleReceived:
		return c.handlePositionSample(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled position event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PositionEventConsumer) handlePositionSample(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PositionSampleEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PositionSampleEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	sample := navigation.Position{
		Coordinate:     geo.Coordinate{Lat: evt.Lat, Lng: evt.Lng},
		AccuracyMeters: evt.AccuracyMeters,
		HeadingDegrees: evt.HeadingDegrees,
		SpeedMps:       evt.SpeedMps,
		CapturedAt:     time.UnixMilli(evt.CapturedAtMs).UTC(),
	}

	_, err := c.service.HandlePosition(ctx, sample)
	if errors.Is(err, navigation.ErrNoSession) {
		// Samples arriving outside an active session are expected; the
		// gateway keeps publishing while the app is foregrounded.
		return nil
	}
	if err != nil {
		c.logger.Error("failed to apply position sample", zap.Error(err))
		return err
	}
	return nil
}
