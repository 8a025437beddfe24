// Package directory resolves events and participants owned by the
// event-management side of the platform.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"Backend-Attendance/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Directory resolves event titles and participant names.
type Directory interface {
	FindEvent(ctx context.Context, eventID string) (*models.Event, error)
	FindParticipant(ctx context.Context, participantID string) (*models.Participant, error)
}

// MongoDirectory reads the shared events and participants collections.
type MongoDirectory struct {
	events       *mongo.Collection
	participants *mongo.Collection
}

func NewMongoDirectory(events, participants *mongo.Collection) *MongoDirectory {
	return &MongoDirectory{events: events, participants: participants}
}

func (d *MongoDirectory) FindEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var ev models.Event
	err := d.events.FindOne(ctx, bson.M{"eventId": eventID}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &ev, nil
}

func (d *MongoDirectory) FindParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	var p models.Participant
	err := d.participants.FindOne(ctx, bson.M{"participantId": participantID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("participant %s: %w", participantID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return &p, nil
}

// UpsertEvent is used by the demo seeder; the attendance flow never writes here.
func (d *MongoDirectory) UpsertEvent(ctx context.Context, ev models.Event) error {
	_, err := d.events.UpdateOne(ctx, bson.M{"eventId": ev.EventID},
		bson.M{"$set": ev}, options.Update().SetUpsert(true))
	return err
}

func (d *MongoDirectory) UpsertParticipant(ctx context.Context, p models.Participant) error {
	_, err := d.participants.UpdateOne(ctx, bson.M{"participantId": p.ParticipantID},
		bson.M{"$set": p}, options.Update().SetUpsert(true))
	return err
}

// MemoryDirectory is an in-process Directory for tests and local runs.
type MemoryDirectory struct {
	mu           sync.RWMutex
	events       map[string]models.Event
	participants map[string]models.Participant
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		events:       make(map[string]models.Event),
		participants: make(map[string]models.Participant),
	}
}

func (d *MemoryDirectory) AddEvent(ev models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[ev.EventID] = ev
}

func (d *MemoryDirectory) AddParticipant(p models.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.ParticipantID] = p
}

func (d *MemoryDirectory) UpsertEvent(_ context.Context, ev models.Event) error {
	d.AddEvent(ev)
	return nil
}

func (d *MemoryDirectory) UpsertParticipant(_ context.Context, p models.Participant) error {
	d.AddParticipant(p)
	return nil
}

func (d *MemoryDirectory) FindEvent(_ context.Context, eventID string) (*models.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ev, ok := d.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	return &ev, nil
}

func (d *MemoryDirectory) FindParticipant(_ context.Context, participantID string) (*models.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.participants[participantID]
	if !ok {
		return nil, fmt.Errorf("participant %s: %w", participantID, models.ErrNotFound)
	}
	return &p, nil
}
