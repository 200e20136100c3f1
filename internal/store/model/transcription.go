package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Transcription status constants. Transitions are monotonic
// (pending -> processing -> completed/failed) except for the recovery
// path, which may force processing back to pending.
const (
	TranscriptionStatusPending    = "pending"
	TranscriptionStatusProcessing = "processing"
	TranscriptionStatusCompleted  = "completed"
	TranscriptionStatusFailed     = "failed"
)

type Transcription struct {
	ID        uuid.UUID `gorm:"primaryKey;type:TEXT"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	// UpdatedAt is refreshed on every status mutation. The recovery
	// reconciler keys every decision off this field, never off job age.
	UpdatedAt time.Time

	Username string `gorm:"not null;type:VARCHAR(255);index:transcriptions_username_idx"`
	OrgID    string `gorm:"not null;type:VARCHAR(255)"`
	Status   string `gorm:"not null;type:VARCHAR(32);index:transcriptions_status_idx"`

	// Job payload, re-submitted verbatim on recovery.
	AudioRef  string               `gorm:"not null"`
	Context   string               `gorm:"type:TEXT"`
	Templates *JSONField[[]string] `gorm:"type:jsonb"`

	// Error is nullable on purpose: recovery clears it to NULL, which the
	// store treats as distinct from an empty string.
	Error *string

	Summary         *string    `gorm:"type:TEXT"`
	PreferredLocale *string    `gorm:"type:VARCHAR(16)"`
	Analyses        []Analysis `gorm:"foreignKey:TranscriptionID;references:ID;constraint:OnDelete:CASCADE;"`
}

type TranscriptionList []Transcription

func (t Transcription) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}

// TemplateKeys returns the requested analysis templates, empty when none
// were selected at submission time.
func (t Transcription) TemplateKeys() []string {
	if t.Templates == nil {
		return nil
	}
	return t.Templates.Data
}

type Analysis struct {
	ID        uuid.UUID `gorm:"primaryKey;type:TEXT"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time

	TranscriptionID uuid.UUID `gorm:"not null;type:TEXT;index:analyses_transcription_id_idx"`
	TemplateKey     string    `gorm:"not null;type:VARCHAR(100)"`
	Title           string    `gorm:"type:VARCHAR(255)"`

	Content *JSONField[TranslationContent] `gorm:"type:jsonb;not null"`
}

func (a Analysis) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
