package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"Backend-Attendance/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps sessions in a collection carrying a TTL index on
// expiresAtMirror, so mongod reaps them on its own schedule.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Create(ctx context.Context, s *models.Session) error {
	_, err := m.coll.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("session %s: %w", s.SessionID, models.ErrDuplicate)
	}
	if err != nil {
		log.Printf("❌ [SessionStore.Create] Failed to insert: %v", err)
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := m.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) ListActiveByEvent(ctx context.Context, eventID string, now time.Time) ([]models.Session, error) {
	filter := bson.M{
		"eventId":   eventID,
		"expiresAt": bson.M{"$gt": now.UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: -1}})

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.Session, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return out, nil
}

// DeleteExpired removes sessions the TTL monitor has not reached yet.
func (m *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.M{"expiresAtMirror": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}
