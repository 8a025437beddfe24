package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Backend-Attendance/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store over the teams collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Create(ctx context.Context, t *models.Team) error {
	_, err := m.coll.InsertOne(ctx, t)
	return createError(t, err)
}

// createError maps a failed team insert to the registry's sentinels. The
// unique members index and the unique name index both raise E11000.
func createError(t *models.Team, err error) error {
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert team: %w", err)
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, models.TeamMembersIndex) {
				return fmt.Errorf("team %q: %w", t.TeamName, ErrMemberInOtherTeam)
			}
		}
	}
	return fmt.Errorf("team %q: %w", t.TeamName, models.ErrDuplicate)
}

func (m *MongoStore) FindByID(ctx context.Context, teamID string) (*models.Team, error) {
	return m.findOne(ctx, bson.M{"teamId": teamID})
}

func (m *MongoStore) FindByMember(ctx context.Context, eventID, participantID string) (*models.Team, error) {
	return m.findOne(ctx, bson.M{"eventId": eventID, "members": participantID})
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Team, error) {
	var t models.Team
	err := m.coll.FindOne(ctx, filter).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("team: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team: %w", err)
	}
	return &t, nil
}

// MongoSummaryStore implements SummaryStore over the summaries collection.
type MongoSummaryStore struct {
	coll *mongo.Collection
}

func NewMongoSummaryStore(coll *mongo.Collection) *MongoSummaryStore {
	return &MongoSummaryStore{coll: coll}
}

// Upsert writes s unless a newer summary is stored. When the stored one is
// newer the filter misses, the upsert tries to insert and trips the unique
// (eventId, teamId) index, which is read as "stale, skipped".
func (m *MongoSummaryStore) Upsert(ctx context.Context, s models.TeamAttendanceSummary) (bool, error) {
	filter := bson.M{
		"eventId":   s.EventID,
		"teamId":    s.TeamID,
		"updatedAt": bson.M{"$lte": s.UpdatedAt},
	}
	update := bson.M{"$set": bson.M{
		"membersPresent":       s.MembersPresent,
		"membersAbsent":        s.MembersAbsent,
		"totalMembers":         s.TotalMembers,
		"attendancePercentage": s.AttendancePercentage,
		"updatedAt":            s.UpdatedAt,
	}}

	_, err := m.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("upsert team summary: %w", err)
	}
	return true, nil
}

func (m *MongoSummaryStore) Find(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error) {
	var s models.TeamAttendanceSummary
	err := m.coll.FindOne(ctx, bson.M{"eventId": eventID, "teamId": teamID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("summary %s/%s: %w", eventID, teamID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team summary: %w", err)
	}
	return &s, nil
}
