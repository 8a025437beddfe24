package attendance

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

// MongoLedger relies on the unique (participantId, eventId) index created by
// database.EnsureIndexes.
type MongoLedger struct {
	coll *mongo.Collection
}

func NewMongoLedger(coll *mongo.Collection) *MongoLedger {
	return &MongoLedger{coll: coll}
}

func (m *MongoLedger) Find(ctx context.Context, participantID, eventID string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := m.coll.FindOne(ctx, bson.M{"participantId": participantID, "eventId": eventID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("attendance %s/%s: %w", participantID, eventID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &rec, nil
}

func (m *MongoLedger) InsertOrGetExisting(ctx context.Context, rec *models.AttendanceRecord) (*models.AttendanceRecord, bool, error) {
	_, err := m.coll.InsertOne(ctx, rec)
	if err == nil {
		stored := *rec
		return &stored, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("insert attendance: %w", err)
	}

	log.Printf("🔁 [AttendanceLedger] Duplicate insert for participant=%s event=%s, reading winner", rec.ParticipantID, rec.EventID)
	existing, findErr := m.Find(ctx, rec.ParticipantID, rec.EventID)
	if findErr != nil {
		return nil, false, fmt.Errorf("re-read after duplicate: %w", findErr)
	}
	return existing, false, nil
}

func (m *MongoLedger) CountValidPresent(ctx context.Context, eventID string, participantIDs []string) (int, error) {
	if len(participantIDs) == 0 {
		return 0, nil
	}
	n, err := m.coll.CountDocuments(ctx, bson.M{
		"eventId":       eventID,
		"participantId": bson.M{"$in": participantIDs},
		"status":        models.StatusPresent,
		"isValid":       true,
	})
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return int(n), nil
}

func (m *MongoLedger) ListByEvent(ctx context.Context, eventID string, params models.PaginationParams) ([]models.AttendanceRecord, int64, error) {
	filter := bson.M{"eventId": eventID}

	total, err := m.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scannedAt", Value: params.GetSortOrder()}, {Key: "participantId", Value: 1}}).
		SetSkip(params.GetSkip()).
		SetLimit(int64(params.Limit))

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.AttendanceRecord, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode attendance: %w", err)
	}
	return out, total, nil
}

func (m *MongoLedger) Invalidate(ctx context.Context, participantID, eventID, by, reason string, at time.Time) (*models.AttendanceRecord, error) {
	filter := bson.M{"participantId": participantID, "eventId": eventID, "isValid": true}
	update := bson.M{"$set": bson.M{
		"isValid":            false,
		"invalidatedAt":      at,
		"invalidatedBy":      by,
		"invalidationReason": reason,
	}}

	var rec models.AttendanceRecord
	err := m.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// already invalidated, or never existed
		return m.Find(ctx, participantID, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("invalidate attendance: %w", err)
	}
	return &rec, nil
}
