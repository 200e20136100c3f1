package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
)

// StallObserver subscribes to queue lifecycle events for observability. It
// takes no corrective action on a stalled-but-retryable task: the queue's
// own retry policy owns those. Orphan recovery, where the task vanished
// from the queue entirely, is the reconciler's job.
//
// The one side effect it allows itself is marking a transcription failed
// once the queue has exhausted every retry, so terminal failures are never
// mistaken for silently lost work.
type StallObserver struct {
	client         *Client
	transcriptions store.Transcription
}

func NewStallObserver(client *Client, transcriptions store.Transcription) *StallObserver {
	return &StallObserver{client: client, transcriptions: transcriptions}
}

// Start subscribes to the queue events and consumes them until ctx is done.
func (o *StallObserver) Start(ctx context.Context) {
	events, cancel := o.client.Subscribe(
		river.EventKindJobCompleted,
		river.EventKindJobFailed,
		river.EventKindJobCancelled,
	)

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				o.handleEvent(ctx, event)
			}
		}
	}()
}

func (o *StallObserver) handleEvent(ctx context.Context, event *river.Event) {
	// an event handler must never take down the consumer loop
	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("stall_observer").Errorf("panic in queue event handler: %v", r)
		}
	}()

	if event == nil || event.Job == nil {
		return
	}

	logger := zap.S().Named("stall_observer")
	transcriptionID := transcriptionIDFromJob(event.Job)

	switch event.Kind {
	case river.EventKindJobCompleted:
		logger.Infof("queue task %d completed (transcription %s)", event.Job.ID, transcriptionID)

	case river.EventKindJobCancelled:
		logger.Warnf("queue task %d cancelled (transcription %s)", event.Job.ID, transcriptionID)

	case river.EventKindJobFailed:
		if event.Job.State != rivertype.JobStateDiscarded {
			// errored but still owned by the queue's retry policy
			logger.Warnf("queue task %d stalled, attempt %d/%d (transcription %s)",
				event.Job.ID, event.Job.Attempt, event.Job.MaxAttempts, transcriptionID)
			return
		}

		logger.Errorf("queue task %d failed permanently after %d attempts (transcription %s)",
			event.Job.ID, event.Job.Attempt, transcriptionID)
		o.markFailed(ctx, event.Job, transcriptionID)
	}
}

func (o *StallObserver) markFailed(ctx context.Context, job *rivertype.JobRow, transcriptionID string) {
	if transcriptionID == "" {
		return
	}
	id, err := uuid.Parse(transcriptionID)
	if err != nil {
		zap.S().Named("stall_observer").Errorf("queue task %d has an invalid transcription id: %v", job.ID, err)
		return
	}

	errMsg := lastJobError(job)
	if err := o.transcriptions.UpdateStatus(ctx, id, model.TranscriptionStatusFailed, &errMsg); err != nil {
		zap.S().Named("stall_observer").Errorf("failed to mark transcription %s failed: %v", transcriptionID, err)
	}
}

func transcriptionIDFromJob(job *rivertype.JobRow) string {
	var args TranscribeArgs
	if err := json.Unmarshal(job.EncodedArgs, &args); err != nil {
		return ""
	}
	if args.TranscriptionID == uuid.Nil {
		return ""
	}
	return args.TranscriptionID.String()
}

func lastJobError(job *rivertype.JobRow) string {
	if len(job.Errors) == 0 {
		return "queue retries exhausted"
	}
	return job.Errors[len(job.Errors)-1].Error
}
