package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

const (
	DefaultQueue  = "transcriptions"
	MaxJobRetries = 3

	JobTimeout = 10 * time.Minute
	JobKind    = "transcribe"
)

type TranscribeArgs struct {
	TranscriptionID uuid.UUID `json:"transcription_id"`
	OrgID           string    `json:"org_id"`
	Username        string    `json:"username"`
	AudioRef        string    `json:"audio_ref"`
	Context         string    `json:"context,omitempty"`
	Templates       []string  `json:"templates,omitempty"`

	// RecoveryKey makes a re-enqueued job distinct from the original, so a
	// recovery insert can never be silently de-duplicated against the task
	// that vanished.
	RecoveryKey string `json:"recovery_key,omitempty"`
}

func (TranscribeArgs) Kind() string {
	return JobKind
}

func (TranscribeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	}
}
