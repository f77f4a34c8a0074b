//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"helpdesk_digest/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) config(name string) Config {
	return Config{
		URL:        s.amqpURL,
		Exchange:   "exchange-" + name,
		RoutingKey: "key-" + name,
		QueueName:  "queue-" + name,
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, err := NewRabbitMQ(s.config("connect"), s.logger)
	s.Require().NoError(err)
	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishNew() {
	cfg := s.config("new")

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	created := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	item := &domain.Item{
		Kind:      domain.KindArticle,
		ID:        123,
		Title:     "Refund policy",
		URL:       "https://acme.zendesk.com/hc/articles/123",
		Category:  "Billing",
		CreatedAt: created,
		UpdatedAt: created,
	}

	s.Require().NoError(pub.Publish(s.ctx, item, "new"))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received ItemMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal("new", received.Action)
	s.Equal(*item, received.Item)
	s.Equal("article.new", msg.Type)
	s.Equal("article-123-new", msg.MessageId)
	s.Equal("application/json", msg.ContentType)
	s.Equal(amqp.Persistent, msg.DeliveryMode)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishCommented() {
	cfg := s.config("commented")

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	item := &domain.Item{Kind: domain.KindPost, ID: 9, Title: "Dark mode", Category: "Ideas"}
	s.Require().NoError(pub.Publish(s.ctx, item, "commented"))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	var received ItemMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal("commented", received.Action)
	s.Equal(domain.KindPost, received.Item.Kind)
	s.Equal(int64(9), received.Item.ID)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
