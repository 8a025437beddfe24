package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/teams"

	"github.com/hibiken/asynq"
)

// Recomputer is what the task handler needs from the aggregator.
type Recomputer interface {
	Recompute(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error)
}

// HandleTeamRecomputeTask builds the handler for TypeTeamRecompute.
func HandleTeamRecomputeTask(agg Recomputer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TeamRecomputePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			log.Println("❌ Payload decode error:", err)
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.EventID == "" || payload.TeamID == "" {
			return fmt.Errorf("incomplete payload: %w", asynq.SkipRetry)
		}

		_, err := agg.Recompute(ctx, payload.EventID, payload.TeamID)
		if errors.Is(err, teams.ErrTeamNotFound) || errors.Is(err, teams.ErrEventMismatch) {
			log.Printf("⚠️ Team %s not found for event %s. Skipping task", payload.TeamID, payload.EventID)
			return nil
		}
		if err != nil {
			log.Printf("❌ Failed to recompute team %s: %v", payload.TeamID, err)
			return err
		}
		return nil
	}
}

// RegisterHandlers binds every task type handled by this service.
func RegisterHandlers(mux *asynq.ServeMux, agg Recomputer) {
	mux.HandleFunc(TypeTeamRecompute, HandleTeamRecomputeTask(agg))
}

// Worker runs the Asynq server for background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisURI string, concurrency int, agg Recomputer) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisURI},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"default": 1},
		},
	)
	mux := asynq.NewServeMux()
	RegisterHandlers(mux, agg)
	return &Worker{server: srv, mux: mux}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start asynq worker: %w", err)
	}
	log.Println("✅ Asynq worker started")
	<-ctx.Done()
	w.server.Shutdown()
	log.Println("🛑 Asynq worker stopped")
	return nil
}
