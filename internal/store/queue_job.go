package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// River job states that count as "live" in the queue. A transcription whose
// id appears in the args of any job in these states does not need recovery.
const (
	RiverJobStateAvailable = "available"
	RiverJobStateRunning   = "running"
	RiverJobStateRetryable = "retryable"
	RiverJobStateScheduled = "scheduled"
	RiverJobStatePending   = "pending"
)

var liveJobStates = []string{
	RiverJobStateAvailable,
	RiverJobStateRunning,
	RiverJobStateRetryable,
	RiverJobStateScheduled,
	RiverJobStatePending,
}

// QueueJob is a read-only view over River's own job table. Insertion goes
// through the queue client, never through this store.
type QueueJob interface {
	LiveTranscriptionIDs(ctx context.Context) (map[uuid.UUID]struct{}, error)
}

type QueueJobStore struct {
	db *gorm.DB
}

// Make sure we conform to QueueJob interface
var _ QueueJob = (*QueueJobStore)(nil)

func NewQueueJobStore(db *gorm.DB) QueueJob {
	return &QueueJobStore{db: db}
}

// LiveTranscriptionIDs returns the set of transcription ids referenced by
// queue jobs in any live state.
func (s *QueueJobStore) LiveTranscriptionIDs(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	var rawIDs []string

	err := s.getDB(ctx).
		Table("river_job").
		Where("state IN ?", liveJobStates).
		Where("args->>'transcription_id' IS NOT NULL").
		Pluck("args->>'transcription_id'", &rawIDs).Error
	if err != nil {
		return nil, fmt.Errorf("querying live queue jobs: %w", err)
	}

	ids := make(map[uuid.UUID]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *QueueJobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
