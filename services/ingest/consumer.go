package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgiokas/BellNotifications/services/notification"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// retryBackoff is the fixed pause after a transient broker or processing
// error before the loop tries again.
const retryBackoff = time.Second

// Consumer pulls creation events from Kafka and feeds them to the
// notification service. It is consumer-group based, so multiple instances
// share partitions without duplicate processing within a group. Offsets are
// committed only after successful handling, giving at-least-once delivery
// that the service's dedupe check absorbs.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *groupHandler
	logger  *zap.Logger
}

// NewConsumer builds a consumer group over the given brokers and topics.
func NewConsumer(brokers, topics []string, groupID, offsetReset string, svc notification.NotificationService, logger *zap.Logger) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Return.Errors = true
	// Progress is committed explicitly after each handled message.
	cfg.Consumer.Offsets.AutoCommit.Enable = false
	if offsetReset == "latest" {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		group:   group,
		topics:  topics,
		handler: &groupHandler{service: svc, logger: logger},
		logger:  logger,
	}, nil
}

// Run blocks consuming messages until ctx is cancelled. Rebalances re-enter
// Consume; transient errors back off briefly and retry.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("Ingestion consumer starting", zap.Strings("topics", c.topics))

	go func() {
		for err := range c.group.Errors() {
			c.logger.Warn("Consumer group error", zap.Error(err))
		}
	}()

	for {
		if err := c.group.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.logger.Error("Consume error, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Close leaves the consumer group so partitions rebalance promptly.
func (c *Consumer) Close() error {
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler. Each message walks
// Fetch -> Parse -> Dispatch -> Commit; within one partition the order is
// strictly arrival order.
type groupHandler struct {
	service notification.NotificationService
	logger  *zap.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Consumer group session started")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Consumer group session ended")
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handleMessage(session, msg); err != nil {
				// Leave the offset uncommitted so the message is
				// redelivered, and back off before the retry.
				select {
				case <-session.Context().Done():
				case <-time.After(retryBackoff):
				}
				return err
			}
		}
	}
}

// handleMessage parses, dispatches, and commits one message. Poison messages
// are committed anyway so they can never stall the partition.
func (h *groupHandler) handleMessage(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) error {
	req, ok := ParsePayload(msg.Value)
	if !ok {
		h.logger.Warn("Skipping unparseable message",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset))
		h.commit(session, msg)
		return nil
	}

	if _, err := h.service.Create(session.Context(), req); err != nil {
		if errors.Is(err, notification.ErrInvalidRequest) {
			// Semantically invalid and can never succeed; treat as poison.
			h.logger.Warn("Skipping invalid creation request",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			h.commit(session, msg)
			return nil
		}
		h.logger.Error("Failed to process message",
			zap.String("topic", msg.Topic),
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return err
	}

	h.commit(session, msg)
	h.logger.Info("Bell notification created from bus message",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))
	return nil
}

func (h *groupHandler) commit(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) {
	session.MarkMessage(msg, "")
	session.Commit()
}
