package directory

import (
	"context"
	"testing"

	"Backend-Attendance/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryLookups(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	_, err := d.FindEvent(ctx, "ev-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = d.FindParticipant(ctx, "p-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, d.UpsertEvent(ctx, models.Event{EventID: "ev-1", Title: "Kickoff"}))
	require.NoError(t, d.UpsertEvent(ctx, models.Event{EventID: "ev-1", Title: "Kickoff (moved)"}))
	require.NoError(t, d.UpsertParticipant(ctx, models.Participant{ParticipantID: "p-1", Name: "Nok"}))

	ev, err := d.FindEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Kickoff (moved)", ev.Title)

	p, err := d.FindParticipant(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Nok", p.Name)
}
