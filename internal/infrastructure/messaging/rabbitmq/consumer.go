package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/contracts/event"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/logger"
)

const (
	queueName = "ranking-service.target-deletions"
	dlxName   = "ranking-service.dlx"
	dlqName   = "ranking-service.target-deletions.dlq"

	rankingCachePrefix = "ranking:"
	handleTimeout      = 5 * time.Second
)

var errPoison = errors.New("poison message")

// TargetPurger removes the reactions of a deleted target.
type TargetPurger interface {
	PurgeTarget(ctx context.Context, target domain.TargetKey) (int64, error)
}

// CacheInvalidator drops cached ranking pages. Optional.
type CacheInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

var deletionTargets = map[string]domain.TargetType{
	event.RKVideoDeleted:   domain.TargetVideo,
	event.RKCommentDeleted: domain.TargetComment,
	event.RKTweetDeleted:   domain.TargetTweet,
}

// Consumer listens for content deletions and cascades them into the
// reaction store.
type Consumer struct {
	rabbitURL string
	exchange  string
	purger    TargetPurger
	cache     CacheInvalidator
}

func NewConsumer(rabbitURL, exchange string, purger TargetPurger, cache CacheInvalidator) *Consumer {
	if strings.TrimSpace(exchange) == "" {
		exchange = DefaultExchange
	}
	return &Consumer{
		rabbitURL: strings.TrimSpace(rabbitURL),
		exchange:  strings.TrimSpace(exchange),
		purger:    purger,
		cache:     cache,
	}
}

// Start declares the topology and consumes until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	log := logger.Logger.With().Str("component", "rabbitmq_consumer").Logger()

	conn, err := amqp.Dial(c.rabbitURL)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := c.declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	deliveries, err := ch.Consume(queueName, "ranking-service", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	go func() {
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("consumer shutting down")
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Warn().Msg("consumer channel closed")
					return
				}
				hctx, cancel := context.WithTimeout(ctx, handleTimeout)
				settle(d, c.handleDelivery(hctx, d))
				cancel()
			}
		}
	}()

	log.Info().Str("queue", queueName).Str("exchange", c.exchange).Msg("consumer started")
	return nil
}

func (c *Consumer) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlx: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlq: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		return fmt.Errorf("bind dlq: %w", err)
	}

	args := amqp.Table{"x-dead-letter-exchange": dlxName}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for rk := range deletionTargets {
		if err := ch.QueueBind(queueName, rk, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	return nil
}

// settle acks handled messages, dead-letters poison and requeues the rest.
func settle(d amqp.Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errPoison):
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) error {
	log := logger.Logger.With().
		Str("component", "rabbitmq_consumer").
		Str("routing_key", d.RoutingKey).
		Str("message_id", d.MessageId).
		Logger()

	var env event.DomainEventEnvelope[json.RawMessage]
	if err := json.Unmarshal(d.Body, &env); err != nil {
		log.Warn().Err(err).Msg("invalid envelope json; dead-lettering")
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if env.Version != envelopeVersion {
		log.Warn().Int("version", env.Version).Msg("unsupported envelope version; dead-lettering")
		return fmt.Errorf("%w: version %d", errPoison, env.Version)
	}

	log = log.With().Str("trace_id", strings.TrimSpace(env.TraceID)).Logger()
	return c.applyDeletion(ctx, d.RoutingKey, env.Payload, log)
}

func (c *Consumer) applyDeletion(ctx context.Context, routingKey string, raw json.RawMessage, log zerolog.Logger) error {
	tt, ok := deletionTargets[routingKey]
	if !ok {
		log.Warn().Msg("unknown routing key; ignoring")
		return nil
	}

	var p event.TargetDeletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Warn().Err(err).Msg("invalid payload json; dead-lettering")
		return fmt.Errorf("%w: %v", errPoison, err)
	}

	// tolerate legacy field
	idStr := strings.TrimSpace(p.TargetID)
	if idStr == "" {
		idStr = strings.TrimSpace(p.ID)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Warn().Str("target_id", idStr).Msg("invalid target id; dead-lettering")
		return fmt.Errorf("%w: target id %q", errPoison, idStr)
	}

	n, err := c.purger.PurgeTarget(ctx, domain.TargetKey{Type: tt, ID: id})
	if err != nil {
		log.Error().Err(err).Msg("purge failed (requeue)")
		return err
	}
	log.Info().Str("target_id", id.String()).Int64("removed", n).Msg("reactions purged")

	if tt == domain.TargetVideo && c.cache != nil {
		if _, err := c.cache.DeletePrefix(ctx, rankingCachePrefix); err != nil {
			log.Warn().Err(err).Msg("ranking cache invalidation failed")
		}
	}
	return nil
}
