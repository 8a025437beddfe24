package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the dispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher enqueues team recounts for the worker. Duplicate tasks for
// the same team are harmless because each is a full recount.
type AsynqDispatcher struct {
	client Enqueuer
}

func NewAsynqDispatcher(client Enqueuer) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) DispatchTeamRecompute(ctx context.Context, eventID, teamID string) error {
	task, err := NewTeamRecomputeTask(eventID, teamID)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeTeamRecompute, err)
	}
	log.Printf("📨 Task enqueued: %s id=%s team=%s", TypeTeamRecompute, info.ID, teamID)
	return nil
}

// InlineDispatcher recounts in the calling goroutine. Used when Redis is not
// configured; the marking service already calls dispatchers off the request path.
type InlineDispatcher struct {
	agg Recomputer
}

func NewInlineDispatcher(agg Recomputer) *InlineDispatcher {
	return &InlineDispatcher{agg: agg}
}

func (d *InlineDispatcher) DispatchTeamRecompute(ctx context.Context, eventID, teamID string) error {
	_, err := d.agg.Recompute(ctx, eventID, teamID)
	return err
}
