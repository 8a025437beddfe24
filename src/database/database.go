package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Backend-Attendance/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	client     *mongo.Client
	once       sync.Once // ConnectMongoDB runs its dial only once
	connectErr error

	SessionCollection     *mongo.Collection
	AttendanceCollection  *mongo.Collection
	TeamCollection        *mongo.Collection
	TeamSummaryCollection *mongo.Collection
	EventCollection       *mongo.Collection
	ParticipantCollection *mongo.Collection
)

// Collection names.
const (
	SessionsCollectionName     = "attendance_sessions"
	AttendanceCollectionName   = "attendance_records"
	TeamsCollectionName        = "teams"
	TeamSummaryCollectionName  = "team_attendance_summaries"
	EventsCollectionName       = "events"
	ParticipantsCollectionName = "participants"
)

// ConnectMongoDB dials MongoDB once and binds the package collections to dbName.
func ConnectMongoDB(ctx context.Context, mongoURI, dbName string) error {
	if mongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}

	once.Do(func() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, connectErr = mongo.Connect(connectCtx, options.Client().ApplyURI(mongoURI))
		if connectErr != nil {
			log.Println("❌ Failed to connect to MongoDB:", connectErr)
			return
		}

		connectErr = client.Ping(connectCtx, readpref.Primary())
		if connectErr != nil {
			log.Println("❌ MongoDB ping failed:", connectErr)
			return
		}

		bindCollections(client.Database(dbName))
		log.Printf("✅ MongoDB connected successfully (db=%s)", dbName)
	})

	return connectErr
}

func bindCollections(db *mongo.Database) {
	SessionCollection = db.Collection(SessionsCollectionName)
	AttendanceCollection = db.Collection(AttendanceCollectionName)
	TeamCollection = db.Collection(TeamsCollectionName)
	TeamSummaryCollection = db.Collection(TeamSummaryCollectionName)
	EventCollection = db.Collection(EventsCollectionName)
	ParticipantCollection = db.Collection(ParticipantsCollectionName)
}

// EnsureIndexes creates the indexes the attendance core depends on. The unique
// (participantId, eventId) index is what enforces at-most-once attendance; the
// TTL index on expiresAtMirror only reaps storage.
func EnsureIndexes(ctx context.Context) error {
	if SessionCollection == nil {
		return fmt.Errorf("collections are not initialized")
	}

	plan := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{SessionCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_session_id")},
			{Keys: bson.D{{Key: "expiresAtMirror", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at_mirror")},
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "expiresAt", Value: -1}}, Options: options.Index().SetName("event_expires_at")},
		}},
		{AttendanceCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "participantId", Value: 1}, {Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_participant_event")},
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "scannedAt", Value: 1}}, Options: options.Index().SetName("event_scanned_at")},
		}},
		{TeamCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "teamId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_team_id")},
			{Keys: bson.D{{Key: "teamName", Value: 1}, {Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_team_name_event")},
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "members", Value: 1}}, Options: options.Index().SetUnique(true).SetName(models.TeamMembersIndex)},
		}},
		{TeamSummaryCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "teamId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_event_team")},
		}},
		{EventCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_event_id")},
		}},
		{ParticipantCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "participantId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_participant_id")},
		}},
	}

	for _, p := range plan {
		names, err := p.coll.Indexes().CreateMany(ctx, p.models)
		if err != nil {
			log.Printf("❌ [EnsureIndexes] %s: %v", p.coll.Name(), err)
			return fmt.Errorf("create indexes on %s: %w", p.coll.Name(), err)
		}
		log.Printf("✅ [EnsureIndexes] %s: %v", p.coll.Name(), names)
	}
	return nil
}

// Ping checks the Mongo connection for health endpoints.
func Ping(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("mongo client is nil")
	}
	return client.Ping(ctx, readpref.Primary())
}

// DisconnectMongoDB closes the client on shutdown.
func DisconnectMongoDB(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
