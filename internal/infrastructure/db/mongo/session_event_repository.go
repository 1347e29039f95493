package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const (
	collectionSessionEvents = "session_events"
	sessionEventRetention   = 90 * 24 * time.Hour
	insertTimeout           = 5 * time.Second
)

// SessionEventRepository implements ports.SessionEventRepository using MongoDB.
type SessionEventRepository struct {
	col *mongo.Collection
}

var _ ports.SessionEventRepository = (*SessionEventRepository)(nil)

// NewSessionEventRepository creates a new SessionEventRepository.
func NewSessionEventRepository(db *mongo.Database) *SessionEventRepository {
	return &SessionEventRepository{col: db.Collection(collectionSessionEvents)}
}

// InsertEvent persists a session transition to the session_events audit collection.
func (r *SessionEventRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, eventDocument(event, time.Now()))
	return err
}

// eventDocument maps an event to its stored shape. Anonymous transitions
// carry no user fields.
func eventDocument(event *domain.SessionEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"type":        string(event.Type),
		"context_id":  event.ContextID,
		"from":        string(event.From),
		"to":          string(event.To),
		"at":          event.At.UTC(),
		"recorded_at": recordedAt.UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
		doc["role"] = string(event.Role)
	}
	return doc
}

// EnsureIndexes creates the lookup indexes and the retention TTL index.
func (r *SessionEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "context_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sessionEventRetention.Seconds())),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
