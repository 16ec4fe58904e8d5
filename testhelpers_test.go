//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wayfinder-mobility/service-navigation/internal/application"
	"github.com/wayfinder-mobility/service-navigation/internal/clients/osrm"
	"github.com/wayfinder-mobility/service-navigation/internal/domain/navigation"
	navEvents "github.com/wayfinder-mobility/service-navigation/internal/events"
	"github.com/wayfinder-mobility/service-navigation/internal/kafka"
	"github.com/wayfinder-mobility/service-navigation/internal/repository"
)

// metersPerDegree is the arc length of one degree on the working sphere.
const metersPerDegree = 6371000 * 3.14159265358979323846 / 180

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// navigationStack holds wired-up navigation service components.
type navigationStack struct {
	Service  *application.NavigationService
	Consumer *navEvents.PositionEventConsumer
	Cleanup  func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_navigation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_navigation sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(&repository.TripModel{}))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, navEvents.TopicNavigationEvents, navEvents.TopicNavigationPositions)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// startFakeRouter serves a fixed OSRM response for a straight 800m route
// along the equator with a turn at 500m.
func startFakeRouter(t *testing.T) *httptest.Server {
	t.Helper()

	lngAt := func(meters float64) float64 { return meters / metersPerDegree }
	geometry := string(polyline.EncodeCoords([][]float64{
		{0, 0},
		{0, lngAt(500)},
		{0, lngAt(800)},
	}))

	body := fmt.Sprintf(`{
		"code": "Ok",
		"routes": [{
			"distance": 800,
			"duration": 160,
			"geometry": %q,
			"legs": [{
				"steps": [
					{"distance": 500, "duration": 100, "name": "First St",
					 "maneuver": {"type": "depart", "location": [0, 0]}},
					{"distance": 300, "duration": 60, "name": "Second St",
					 "maneuver": {"type": "turn", "modifier": "left", "location": [%f, 0]}},
					{"distance": 0, "duration": 0, "name": "Second St",
					 "maneuver": {"type": "arrive", "location": [%f, 0]}}
				]
			}]
		}]
	}`, geometry, lngAt(500), lngAt(800))

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
}

// setupNavigationStack wires up the full navigation service stack against a
// fake OSRM backend.
func setupNavigationStack(t *testing.T, db *gorm.DB, brokers []string, routerURL string) *navigationStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	tripRepo := repository.NewGormTripRepository(db)
	producer := kafka.NewProducer(brokers, logger)
	router := osrm.NewClient(routerURL, 5*time.Second, logger)
	announcer := navigation.NewAnnouncer(nil, logger)
	policy := navigation.NewStaticThresholdPolicy(navigation.DefaultThresholds())

	navSvc := application.NewNavigationService(
		router,
		tripRepo,
		producer,
		navEvents.TopicNavigationEvents,
		announcer,
		policy,
		navigation.DefaultTrackerConfig(),
		3*time.Second,
		logger,
	)

	groupID := fmt.Sprintf("test-navigation-%s", uuid.New().String()[:8])
	consumer := navEvents.NewPositionEventConsumer(brokers, groupID, navEvents.TopicNavigationPositions, navSvc, logger)

	return &navigationStack{
		Service:  navSvc,
		Consumer: consumer,
		Cleanup:  func() { _ = producer.Close() },
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForTripOutcome polls the trips table until a trip with the outcome appears.
func waitForTripOutcome(t *testing.T, db *gorm.DB, outcome string, timeout time.Duration) repository.TripModel {
	t.Helper()
	var result repository.TripModel
	require.Eventually(t, func() bool {
		var model repository.TripModel
		err := db.Where("outcome = ?", outcome).First(&model).Error
		if err != nil {
			return false
		}
		result = model
		return true
	}, timeout, 200*time.Millisecond, "no trip with outcome %s appeared", outcome)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")
}
