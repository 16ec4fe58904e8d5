package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wayfinder-mobility/service-navigation/internal/database"
)

// ServiceConfig holds all configuration for the navigation service.
type ServiceConfig struct {
	Port      string `validate:"required"`
	AppEnv    string `validate:"required,oneof=development staging production"`
	SentryDSN string

	DBConfig     database.PostgresConfig
	KafkaConfig  KafkaConfig
	RouterConfig RouterConfig
	NavConfig    NavConfig
}

// KafkaConfig holds broker addresses and topic names.
type KafkaConfig struct {
	Brokers        []string `validate:"required,min=1"`
	GroupPrefix    string
	PositionsTopic string `validate:"required"`
	EventsTopic    string `validate:"required"`
	SpeechTopic    string
}

// RouterConfig points at the OSRM routing backend.
type RouterConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// NavConfig tunes the position filter and the guidance thresholds.
type NavConfig struct {
	AccuracyCeilingMeters    float64       `validate:"gt=0"`
	JitterEpsilonMeters      float64       `validate:"gte=0"`
	CompletionRadiusMeters   float64       `validate:"gt=0"`
	OffRouteMeters           float64       `validate:"gt=0"`
	AnnouncementRadiusMeters float64       `validate:"gt=0"`
	OffRouteDebounce         time.Duration `validate:"gt=0"`

	// ScaleWithAccuracy widens thresholds proportionally to reported GPS
	// accuracy instead of using them verbatim.
	ScaleWithAccuracy       bool
	ReferenceAccuracyMeters float64 `validate:"gt=0"`
	MaxThresholdScale       float64 `validate:"gte=1"`
}

// Load reads configuration from NAV_* environment variables, applies
// defaults and validates the result.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("NAV")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "navigation")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "wayfinder.")
	v.SetDefault("KAFKA_POSITIONS_TOPIC", "navigation.positions")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "navigation.events")
	v.SetDefault("KAFKA_SPEECH_TOPIC", "")

	v.SetDefault("ROUTER_BASE_URL", "http://localhost:5000")
	v.SetDefault("ROUTER_TIMEOUT", "15s")

	v.SetDefault("ACCURACY_CEILING_METERS", 100.0)
	v.SetDefault("JITTER_EPSILON_METERS", 2.0)
	v.SetDefault("COMPLETION_RADIUS_METERS", 20.0)
	v.SetDefault("OFF_ROUTE_METERS", 50.0)
	v.SetDefault("ANNOUNCEMENT_RADIUS_METERS", 200.0)
	v.SetDefault("OFF_ROUTE_DEBOUNCE", "3s")
	v.SetDefault("SCALE_WITH_ACCURACY", false)
	v.SetDefault("REFERENCE_ACCURACY_METERS", 20.0)
	v.SetDefault("MAX_THRESHOLD_SCALE", 3.0)

	cfg := &ServiceConfig{
		Port:      v.GetString("SERVICE_PORT"),
		AppEnv:    v.GetString("APP_ENV"),
		SentryDSN: v.GetString("SENTRY_DSN"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:        strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix:    v.GetString("KAFKA_GROUP_PREFIX"),
			PositionsTopic: v.GetString("KAFKA_POSITIONS_TOPIC"),
			EventsTopic:    v.GetString("KAFKA_EVENTS_TOPIC"),
			SpeechTopic:    v.GetString("KAFKA_SPEECH_TOPIC"),
		},
		RouterConfig: RouterConfig{
			BaseURL: v.GetString("ROUTER_BASE_URL"),
			Timeout: v.GetDuration("ROUTER_TIMEOUT"),
		},
		NavConfig: NavConfig{
			AccuracyCeilingMeters:    v.GetFloat64("ACCURACY_CEILING_METERS"),
			JitterEpsilonMeters:      v.GetFloat64("JITTER_EPSILON_METERS"),
			CompletionRadiusMeters:   v.GetFloat64("COMPLETION_RADIUS_METERS"),
			OffRouteMeters:           v.GetFloat64("OFF_ROUTE_METERS"),
			AnnouncementRadiusMeters: v.GetFloat64("ANNOUNCEMENT_RADIUS_METERS"),
			OffRouteDebounce:         v.GetDuration("OFF_ROUTE_DEBOUNCE"),
			ScaleWithAccuracy:        v.GetBool("SCALE_WITH_ACCURACY"),
			ReferenceAccuracyMeters:  v.GetFloat64("REFERENCE_ACCURACY_METERS"),
			MaxThresholdScale:        v.GetFloat64("MAX_THRESHOLD_SCALE"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
