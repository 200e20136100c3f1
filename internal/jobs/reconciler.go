package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
	"github.com/parlatext/parlatext/pkg/metrics"
)

const (
	// DefaultGracePeriod is the minimum time since a job's last update
	// before it is eligible for recovery. A job freshly marked processing
	// may not have shown up in the queue's introspection view yet; that is
	// a narrow race, not a crash.
	DefaultGracePeriod = 5 * time.Minute

	// DefaultSettleDelay gives the queue client's connections time to
	// stabilize after process start before the one-shot pass runs.
	DefaultSettleDelay = 10 * time.Second
)

const (
	recoveryOutcomeRecovered = "recovered"
	recoveryOutcomeSkipped   = "skipped"
	recoveryOutcomeFailed    = "failed"
)

// Enqueuer is the slice of the queue client the reconciler needs.
type Enqueuer interface {
	InsertTranscribeJob(ctx context.Context, args TranscribeArgs) (int64, error)
}

type ReconcilerConfig struct {
	GracePeriod time.Duration
	SettleDelay time.Duration
}

// Reconciler guarantees that no transcription stays stuck in processing
// after a crash between "marked processing" and "queue task executing". On
// startup it cross-references the store's processing rows against the
// queue's live task set and re-enqueues the orphans.
//
// The pass is idempotent: a job recovered on one pass is live in the queue
// on the next one and left alone.
type Reconciler struct {
	transcriptions store.Transcription
	queueJobs      store.QueueJob
	enqueuer       Enqueuer
	cfg            ReconcilerConfig
	nowFn          func() time.Time
}

func NewReconciler(transcriptions store.Transcription, queueJobs store.QueueJob, enqueuer Enqueuer, cfg ReconcilerConfig) *Reconciler {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &Reconciler{
		transcriptions: transcriptions,
		queueJobs:      queueJobs,
		enqueuer:       enqueuer,
		cfg:            cfg,
		nowFn:          time.Now,
	}
}

// Run waits for the settle delay and executes one reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.cfg.SettleDelay > 0 {
		timer := time.NewTimer(r.cfg.SettleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.Reconcile(ctx)
}

// Reconcile executes a single pass. Per-job failures are isolated: a job
// that cannot be re-enqueued is logged and counted, and the remaining
// orphans are still processed.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	logger := zap.S().Named("recovery")

	processing, err := r.transcriptions.ListByStatus(ctx, model.TranscriptionStatusProcessing)
	if err != nil {
		return fmt.Errorf("listing processing transcriptions: %w", err)
	}
	if len(processing) == 0 {
		logger.Info("no processing transcriptions found, nothing to recover")
		return nil
	}

	live, err := r.queueJobs.LiveTranscriptionIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing live queue tasks: %w", err)
	}

	var recovered, skipped, failed int
	for _, transcription := range processing {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, ok := live[transcription.ID]; ok {
			continue
		}

		// Decisions are keyed strictly off updatedAt: a job may sit in
		// processing for a long time while genuinely being worked.
		if r.nowFn().Sub(transcription.UpdatedAt) < r.cfg.GracePeriod {
			logger.Debugf("transcription %s is within the grace period, skipping", transcription.ID)
			skipped++
			metrics.IncreaseRecoveredJobsMetric(recoveryOutcomeSkipped)
			continue
		}

		reset, err := r.recover(ctx, &transcription)
		if err != nil {
			logger.Errorf("failed to recover transcription %s: %v", transcription.ID, err)
			failed++
			metrics.IncreaseRecoveredJobsMetric(recoveryOutcomeFailed)
			continue
		}
		if !reset {
			// the row left processing between our read and the flip
			skipped++
			metrics.IncreaseRecoveredJobsMetric(recoveryOutcomeSkipped)
			continue
		}

		logger.Warnf("recovered orphaned transcription %s", transcription.ID)
		recovered++
		metrics.IncreaseRecoveredJobsMetric(recoveryOutcomeRecovered)
	}

	logger.Infof("recovery pass finished: %d recovered, %d skipped, %d failed (of %d processing)",
		recovered, skipped, failed, len(processing))
	return nil
}

func (r *Reconciler) recover(ctx context.Context, transcription *model.Transcription) (bool, error) {
	// Conditional flip: if the row is no longer in processing someone else
	// finished or recovered it between our read and now.
	reset, err := r.transcriptions.ResetForRecovery(ctx, transcription.ID)
	if err != nil {
		return false, err
	}
	if !reset {
		return false, nil
	}

	args := TranscribeArgs{
		TranscriptionID: transcription.ID,
		OrgID:           transcription.OrgID,
		Username:        transcription.Username,
		AudioRef:        transcription.AudioRef,
		Context:         transcription.Context,
		Templates:       transcription.TemplateKeys(),
		RecoveryKey:     fmt.Sprintf("recovery-%s-%d", transcription.ID, r.nowFn().UnixNano()),
	}

	if _, err := r.enqueuer.InsertTranscribeJob(ctx, args); err != nil {
		return false, fmt.Errorf("re-enqueueing: %w", err)
	}
	return true, nil
}
