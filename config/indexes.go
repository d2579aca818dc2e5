package config

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the application depends on. It is
// idempotent; CreateMany is a no-op for indexes that already exist.
func (c *Config) EnsureIndexes(ctx context.Context) error {
	db := c.DB()

	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	// TTL sweeps remove invites and OTP codes past their expiry on the
	// server side; queries still filter on expires_at because the sweep
	// runs at most once a minute.
	invites := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "email", Value: 1}}},
	}
	if _, err := db.Collection("invites").Indexes().CreateMany(ctx, invites); err != nil {
		return fmt.Errorf("invites indexes: %w", err)
	}

	otps := []mongo.IndexModel{
		{Keys: bson.D{{Key: "mobile", Value: 1}, {Key: "purpose", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	if _, err := db.Collection("otps").Indexes().CreateMany(ctx, otps); err != nil {
		return fmt.Errorf("otps indexes: %w", err)
	}

	notifications := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notifications); err != nil {
		return fmt.Errorf("notifications indexes: %w", err)
	}

	outbox := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	if _, err := db.Collection("outbox_messages").Indexes().CreateMany(ctx, outbox); err != nil {
		return fmt.Errorf("outbox indexes: %w", err)
	}

	return nil
}
