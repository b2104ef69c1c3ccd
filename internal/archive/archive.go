// Package archive is an optional insert-only record of session steps
// and lifecycle events, backed by MongoDB. It exists purely for
// after-the-fact analysis; nothing in the request path reads from it.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/optionchainsim/service/internal/config"
)

// StepRecord is one archived advance() call.
type StepRecord struct {
	SessionID       uuid.UUID       `bson:"session_id"`
	Step            int             `bson:"step"`
	UnderlyingPrice decimal.Decimal `bson:"underlying_price"`
	RecordedAt      time.Time       `bson:"recorded_at"`
}

// EventRecord is one lifecycle transition (create/modify/reinitialize/
// delete) archived for audit purposes.
type EventRecord struct {
	SessionID  uuid.UUID `bson:"session_id"`
	Event      string    `bson:"event"`
	State      string    `bson:"state"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// Archive writes append-only documents to Mongo. A nil *Archive is
// valid and every method becomes a no-op, so callers can wire it
// unconditionally and let config decide whether it's active.
type Archive struct {
	client    *mongo.Client
	steps     *mongo.Collection
	events    *mongo.Collection
	opTimeout time.Duration
}

// Connect dials Mongo using cfg.MongoURI. Returns nil, nil when no URI
// is configured so callers can treat archiving as opt-in.
func Connect(cfg *config.Config) (*Archive, error) {
	if cfg.MongoURI == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDatabase)
	return &Archive{
		client:    client,
		steps:     db.Collection(cfg.MongoStepsCollection),
		events:    db.Collection(cfg.MongoEventsCollection),
		opTimeout: cfg.MongoTimeout,
	}, nil
}

// Close disconnects the underlying client. Safe to call on a nil Archive.
func (a *Archive) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

// RecordStep inserts a step record. Failures are the caller's to log
// and swallow — archiving must never fail a live request.
func (a *Archive) RecordStep(rec StepRecord) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()
	_, err := a.steps.InsertOne(ctx, rec)
	return err
}

// RecordEvent inserts a lifecycle event record.
func (a *Archive) RecordEvent(rec EventRecord) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()
	_, err := a.events.InsertOne(ctx, rec)
	return err
}
