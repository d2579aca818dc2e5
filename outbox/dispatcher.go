package outbox

import (
	"context"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	utils "github.com/huddle/eventify-go/utils"
)

// maxAttempts is the number of dispatcher passes before a message is
// parked as failed. Each pass itself retries the provider with backoff.
const maxAttempts = 5

// Dispatcher drains pending outbox messages on a fixed interval.
type Dispatcher struct {
	cfg      *config.Config
	interval time.Duration
}

func NewDispatcher(cfg *config.Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, interval: 10 * time.Second}
}

// Run blocks until ctx is canceled, draining the queue once per tick.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

// drain claims and sends pending messages one at a time. FindOneAndUpdate
// bumps the attempt counter at claim time, so a crash mid-send still
// counts the attempt.
func (d *Dispatcher) drain(ctx context.Context) {
	col := d.cfg.DB().Collection(collection)

	for {
		opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)

		var msg models.OutboxMessage
		err := col.FindOneAndUpdate(opCtx,
			bson.M{"status": models.OutboxStatusPending, "attempts": bson.M{"$lt": maxAttempts}},
			bson.M{"$inc": bson.M{"attempts": 1}, "$set": bson.M{"updated_at": time.Now()}},
			options.FindOneAndUpdate().
				SetSort(bson.D{{Key: "created_at", Value: 1}}).
				SetReturnDocument(options.After),
		).Decode(&msg)
		if err != nil {
			cancel()
			if err != mongo.ErrNoDocuments {
				log.Error().Err(err).Msg("outbox claim failed")
			}
			return
		}

		d.deliver(opCtx, col, msg)
		cancel()

		if ctx.Err() != nil {
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, col *mongo.Collection, msg models.OutboxMessage) {
	retrier := retry.NewRetrier(3, 500*time.Millisecond, 5*time.Second)
	err := retrier.Run(func() error {
		switch msg.Kind {
		case models.OutboxKindSMS:
			return utils.SendSMS(d.cfg, msg.Recipient, msg.Body)
		default:
			return utils.SendEmail(d.cfg, msg.Recipient, msg.Subject, msg.Body)
		}
	})

	now := time.Now()
	update := bson.M{"updated_at": now}
	if err != nil {
		update["last_error"] = err.Error()
		if msg.Attempts >= maxAttempts {
			update["status"] = models.OutboxStatusFailed
		}
		log.Warn().Err(err).
			Str("message_id", msg.MessageID).
			Str("kind", msg.Kind).
			Int("attempts", msg.Attempts).
			Msg("outbox delivery failed")
	} else {
		update["status"] = models.OutboxStatusSent
		update["sent_at"] = now
		log.Info().
			Str("message_id", msg.MessageID).
			Str("kind", msg.Kind).
			Msg("outbox message delivered")
	}

	if _, uerr := col.UpdateOne(ctx, bson.M{"_id": msg.ID}, bson.M{"$set": update}); uerr != nil {
		log.Error().Err(uerr).Str("message_id", msg.MessageID).Msg("outbox status update failed")
	}
}
