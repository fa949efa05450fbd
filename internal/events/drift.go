// Package events carries ledger drift from the settlement services to the
// discrepancy table over an in-process watermill pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"shuttle/internal/domain/models"
	"shuttle/internal/utils"
)

const (
	TopicLedgerDrift       = "ledger.drift"
	TopicLedgerDriftPoison = "ledger.drift.poison"

	driftHandlerName  = "ledger_drift_recorder"
	poisonHandlerName = "ledger_drift_poison_logger"
	metaRequestID    = "request_id"
)

type DiscrepancyRecorder interface {
	RecordDiscrepancy(ctx context.Context, d *models.Discrepancy) error
}

// DriftPublisher publishes drift reports as JSON messages.
type DriftPublisher struct {
	Publisher message.Publisher
}

func (p DriftPublisher) ReportDrift(ctx context.Context, d models.Discrepancy) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal drift: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metaRequestID, utils.RequestIDFrom(ctx))
	return p.Publisher.Publish(TopicLedgerDrift, msg)
}

// Bus owns the pub/sub and the router that persists drift messages.
type Bus struct {
	pubSub *gochannel.GoChannel
	router *message.Router
}

func NewBus(logger *zap.Logger, recorder DiscrepancyRecorder) (*Bus, error) {
	wlog := NewZapLoggerAdapter(logger)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wlog)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wlog)
	if err != nil {
		return nil, err
	}
	// exhausted retries end up on the poison topic instead of being redelivered
	poison, err := middleware.PoisonQueue(pubSub, TopicLedgerDriftPoison)
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(
		middleware.Recoverer,
		poison,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Multiplier:      2,
			Logger:          wlog,
		}.Middleware,
	)
	router.AddNoPublisherHandler(driftHandlerName, TopicLedgerDrift, pubSub, recordDrift(recorder))
	router.AddNoPublisherHandler(poisonHandlerName, TopicLedgerDriftPoison, pubSub, logPoisonedDrift)

	return &Bus{pubSub: pubSub, router: router}, nil
}

func recordDrift(recorder DiscrepancyRecorder) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var d models.Discrepancy
		if err := json.Unmarshal(msg.Payload, &d); err != nil {
			// a malformed payload will never succeed, drop it
			utils.LogError(msg.Context(), "events", "decode_drift", "dropping malformed drift message", err,
				zap.String("message_uuid", msg.UUID))
			return nil
		}
		ctx := utils.WithRequestID(msg.Context(), msg.Metadata.Get(metaRequestID))
		d.ID = 0
		d.Status = models.DiscrepancyOpen
		if err := recorder.RecordDiscrepancy(ctx, &d); err != nil {
			return err
		}
		utils.LogEvent(ctx, "events", "record_drift", "ledger drift recorded",
			zap.Int64("discrepancy_id", d.ID), zap.String("kind", string(d.Kind)))
		return nil
	}
}

// logPoisonedDrift reports a drift message that could not be recorded. The
// discrepancy is lost from the table but kept in the log.
func logPoisonedDrift(msg *message.Message) error {
	ctx := utils.WithRequestID(msg.Context(), msg.Metadata.Get(metaRequestID))
	utils.LogError(ctx, "events", "poison_drift", "ledger drift could not be recorded",
		fmt.Errorf("%s", msg.Metadata.Get(middleware.ReasonForPoisonedKey)),
		zap.String("message_uuid", msg.UUID),
		zap.ByteString("payload", msg.Payload))
	return nil
}

func (b *Bus) Drift() DriftPublisher {
	return DriftPublisher{Publisher: b.pubSub}
}

// Run blocks until ctx is done or the router is closed.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once the drift handler is subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubSub.Close()
}
