package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/teams"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error) {
	args := m.Called(ctx, eventID, teamID)
	s, _ := args.Get(0).(*models.TeamAttendanceSummary)
	return s, args.Error(1)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func TestNewTeamRecomputeTask(t *testing.T) {
	task, err := NewTeamRecomputeTask("E1", "T1")
	require.NoError(t, err)
	assert.Equal(t, TypeTeamRecompute, task.Type())

	var p TeamRecomputePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, TeamRecomputePayload{EventID: "E1", TeamID: "T1"}, p)
}

func TestHandleTeamRecomputeTask(t *testing.T) {
	ctx := context.Background()
	summary := models.NewTeamAttendanceSummary("E1", "T1", 1, 2, time.Now())

	t.Run("recounts", func(t *testing.T) {
		agg := new(mockRecomputer)
		agg.On("Recompute", mock.Anything, "E1", "T1").Return(&summary, nil).Once()
		task, _ := NewTeamRecomputeTask("E1", "T1")

		assert.NoError(t, HandleTeamRecomputeTask(agg)(ctx, task))
		agg.AssertExpectations(t)
	})

	t.Run("bad payload is not retried", func(t *testing.T) {
		agg := new(mockRecomputer)
		err := HandleTeamRecomputeTask(agg)(ctx, asynq.NewTask(TypeTeamRecompute, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)

		task, _ := NewTeamRecomputeTask("", "T1")
		err = HandleTeamRecomputeTask(agg)(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		agg.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deleted team is skipped", func(t *testing.T) {
		agg := new(mockRecomputer)
		agg.On("Recompute", mock.Anything, "E1", "T1").Return(nil, teams.ErrTeamNotFound)
		task, _ := NewTeamRecomputeTask("E1", "T1")
		assert.NoError(t, HandleTeamRecomputeTask(agg)(ctx, task))
	})

	t.Run("storage errors are retried", func(t *testing.T) {
		agg := new(mockRecomputer)
		agg.On("Recompute", mock.Anything, "E1", "T1").Return(nil, errors.New("mongo down"))
		task, _ := NewTeamRecomputeTask("E1", "T1")
		err := HandleTeamRecomputeTask(agg)(ctx, task)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestAsynqDispatcher(t *testing.T) {
	ctx := context.Background()
	q := new(mockEnqueuer)
	q.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == TypeTeamRecompute
	}), mock.Anything).Return(&asynq.TaskInfo{ID: "task-1"}, nil).Once()

	require.NoError(t, NewAsynqDispatcher(q).DispatchTeamRecompute(ctx, "E1", "T1"))
	q.AssertExpectations(t)

	failing := new(mockEnqueuer)
	failing.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
	assert.Error(t, NewAsynqDispatcher(failing).DispatchTeamRecompute(ctx, "E1", "T1"))
}

func TestInlineDispatcher(t *testing.T) {
	agg := new(mockRecomputer)
	agg.On("Recompute", mock.Anything, "E1", "T1").Return(nil, errors.New("boom")).Once()

	err := NewInlineDispatcher(agg).DispatchTeamRecompute(context.Background(), "E1", "T1")
	assert.Error(t, err)
	agg.AssertExpectations(t)
}
