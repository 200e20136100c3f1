package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
)

type fakeTranscriptionStore struct {
	store.Transcription

	mu         sync.Mutex
	processing model.TranscriptionList
	reset      map[uuid.UUID]bool
	listErr    error
	resetErr   error
}

func (f *fakeTranscriptionStore) ListByStatus(_ context.Context, status string) (model.TranscriptionList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if status != model.TranscriptionStatusProcessing {
		return nil, nil
	}
	return f.processing, nil
}

func (f *fakeTranscriptionStore) ResetForRecovery(_ context.Context, id uuid.UUID) (bool, error) {
	if f.resetErr != nil {
		return false, f.resetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reset == nil {
		f.reset = map[uuid.UUID]bool{}
	}
	if f.reset[id] {
		return false, nil
	}
	f.reset[id] = true
	return true, nil
}

type fakeQueueJobStore struct {
	store.QueueJob

	live    map[uuid.UUID]struct{}
	liveErr error
}

func (f *fakeQueueJobStore) LiveTranscriptionIDs(context.Context) (map[uuid.UUID]struct{}, error) {
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	if f.live == nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	return f.live, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	inserted []TranscribeArgs
	failFor  map[uuid.UUID]error
}

func (f *fakeEnqueuer) InsertTranscribeJob(_ context.Context, args TranscribeArgs) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[args.TranscriptionID]; ok {
		return 0, err
	}
	f.inserted = append(f.inserted, args)
	return int64(len(f.inserted)), nil
}

func processingTranscription(updatedAt time.Time) model.Transcription {
	return model.Transcription{
		ID:        uuid.New(),
		UpdatedAt: updatedAt,
		Username:  "alice",
		OrgID:     "acme",
		Status:    model.TranscriptionStatusProcessing,
		AudioRef:  "s3://bucket/audio.wav",
		Templates: model.MakeJSONField([]string{"action_items"}),
	}
}

func newTestReconciler(transcriptions *fakeTranscriptionStore, queueJobs *fakeQueueJobStore, enqueuer *fakeEnqueuer) *Reconciler {
	r := NewReconciler(transcriptions, queueJobs, enqueuer, ReconcilerConfig{
		GracePeriod: 5 * time.Minute,
		SettleDelay: 0,
	})
	r.nowFn = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestReconcileRecoversOrphan(t *testing.T) {
	orphan := processingTranscription(time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC))
	transcriptions := &fakeTranscriptionStore{processing: model.TranscriptionList{orphan}}
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(transcriptions, &fakeQueueJobStore{}, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))

	require.Len(t, enqueuer.inserted, 1)
	args := enqueuer.inserted[0]
	assert.Equal(t, orphan.ID, args.TranscriptionID)
	assert.Equal(t, orphan.AudioRef, args.AudioRef)
	assert.Equal(t, []string{"action_items"}, args.Templates)
	assert.True(t, strings.HasPrefix(args.RecoveryKey, fmt.Sprintf("recovery-%s-", orphan.ID)))
	assert.True(t, transcriptions.reset[orphan.ID])
}

func TestReconcileLeavesLiveJobsAlone(t *testing.T) {
	live := processingTranscription(time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC))
	transcriptions := &fakeTranscriptionStore{processing: model.TranscriptionList{live}}
	queueJobs := &fakeQueueJobStore{live: map[uuid.UUID]struct{}{live.ID: {}}}
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(transcriptions, queueJobs, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))

	assert.Empty(t, enqueuer.inserted)
	assert.False(t, transcriptions.reset[live.ID])
}

func TestReconcileRespectsGracePeriod(t *testing.T) {
	fresh := processingTranscription(time.Date(2026, 1, 10, 11, 58, 0, 0, time.UTC))
	transcriptions := &fakeTranscriptionStore{processing: model.TranscriptionList{fresh}}
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(transcriptions, &fakeQueueJobStore{}, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))

	assert.Empty(t, enqueuer.inserted)
	assert.False(t, transcriptions.reset[fresh.ID])
}

func TestReconcileIsolatesPerJobFailures(t *testing.T) {
	old := time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC)
	broken := processingTranscription(old)
	healthy := processingTranscription(old)
	transcriptions := &fakeTranscriptionStore{processing: model.TranscriptionList{broken, healthy}}
	enqueuer := &fakeEnqueuer{failFor: map[uuid.UUID]error{broken.ID: fmt.Errorf("queue unavailable")}}
	r := newTestReconciler(transcriptions, &fakeQueueJobStore{}, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))

	require.Len(t, enqueuer.inserted, 1)
	assert.Equal(t, healthy.ID, enqueuer.inserted[0].TranscriptionID)
}

func TestReconcileSkipsConcurrentlyFinishedJob(t *testing.T) {
	orphan := processingTranscription(time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC))
	transcriptions := &fakeTranscriptionStore{
		processing: model.TranscriptionList{orphan},
		reset:      map[uuid.UUID]bool{orphan.ID: true}, // already flipped elsewhere
	}
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(transcriptions, &fakeQueueJobStore{}, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))

	assert.Empty(t, enqueuer.inserted)
}

func TestReconcileNothingToRecover(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(&fakeTranscriptionStore{}, &fakeQueueJobStore{liveErr: fmt.Errorf("must not be called")}, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))
	assert.Empty(t, enqueuer.inserted)
}

func TestReconcileListFailureAborts(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{listErr: fmt.Errorf("db down")}
	r := newTestReconciler(transcriptions, &fakeQueueJobStore{}, &fakeEnqueuer{})

	assert.Error(t, r.Reconcile(context.Background()))
}

func TestReconcileIsIdempotentAcrossPasses(t *testing.T) {
	orphan := processingTranscription(time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC))
	transcriptions := &fakeTranscriptionStore{processing: model.TranscriptionList{orphan}}
	queueJobs := &fakeQueueJobStore{}
	enqueuer := &fakeEnqueuer{}
	r := newTestReconciler(transcriptions, queueJobs, enqueuer)

	require.NoError(t, r.Reconcile(context.Background()))
	require.Len(t, enqueuer.inserted, 1)

	// second pass: the recovered job is now live in the queue
	queueJobs.live = map[uuid.UUID]struct{}{orphan.ID: {}}
	require.NoError(t, r.Reconcile(context.Background()))
	assert.Len(t, enqueuer.inserted, 1)
}

func TestRunHonorsContextDuringSettleDelay(t *testing.T) {
	r := NewReconciler(&fakeTranscriptionStore{}, &fakeQueueJobStore{}, &fakeEnqueuer{}, ReconcilerConfig{
		GracePeriod: time.Minute,
		SettleDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}
