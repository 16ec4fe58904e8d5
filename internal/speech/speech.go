package speech

import (
	"context"

	"go.uber.org/zap"

	"github.com/wayfinder-mobility/service-navigation/internal/kafka"
)

// LogSpeaker writes instructions to the log. It is the default voice output
// when no downstream text-to-speech pipeline is configured.
type LogSpeaker struct {
	logger *zap.Logger
}

// NewLogSpeaker creates a LogSpeaker.
func NewLogSpeaker(logger *zap.Logger) *LogSpeaker {
	return &LogSpeaker{logger: logger}
}

// Speak logs the instruction text.
func (s *LogSpeaker) Speak(_ context.Context, text string) error {
	s.logger.Info("speaking instruction", zap.String("text", text))
	return nil
}

// KafkaSpeaker forwards instructions to a Kafka topic for a downstream
// text-to-speech service.
type KafkaSpeaker struct {
	producer *kafka.Producer
	topic    string
	source   string
}

// NewKafkaSpeaker creates a KafkaSpeaker publishing to the given topic.
func NewKafkaSpeaker(producer *kafka.Producer, topic, source string) *KafkaSpeaker {
	return &KafkaSpeaker{producer: producer, topic: topic, source: source}
}

type spokenText struct {
	Text string `json:"text"`
}

// Speak publishes the instruction text as a CloudEvent.
func (s *KafkaSpeaker) Speak(ctx context.Context, text string) error {
	event, err := kafka.NewCloudEvent(s.source, "navigation.speech.requested", spokenText{Text: text})
	if err != nil {
		return err
	}
	return s.producer.PublishEvent(ctx, s.topic, event)
}
