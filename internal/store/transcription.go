package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parlatext/parlatext/internal/store/model"
)

type Transcription interface {
	Create(ctx context.Context, transcription *model.Transcription) (*model.Transcription, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Transcription, error)
	List(ctx context.Context, username string, orgID string) (model.TranscriptionList, error)
	ListByStatus(ctx context.Context, status string) (model.TranscriptionList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error
	ResetForRecovery(ctx context.Context, id uuid.UUID) (bool, error)
	SetSummary(ctx context.Context, id uuid.UUID, summary string) error
	SetPreferredLocale(ctx context.Context, id uuid.UUID, localeCode string) error
	CreateAnalysis(ctx context.Context, analysis *model.Analysis) (*model.Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, transcriptionID uuid.UUID) ([]model.Analysis, error)
}

type TranscriptionStore struct {
	db *gorm.DB
}

// Make sure we conform to Transcription interface
var _ Transcription = (*TranscriptionStore)(nil)

func NewTranscriptionStore(db *gorm.DB) Transcription {
	return &TranscriptionStore{db: db}
}

func (s *TranscriptionStore) Create(ctx context.Context, transcription *model.Transcription) (*model.Transcription, error) {
	if transcription.ID == uuid.Nil {
		transcription.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(transcription)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating transcription: %w", result.Error)
	}
	return transcription, nil
}

func (s *TranscriptionStore) Get(ctx context.Context, id uuid.UUID) (*model.Transcription, error) {
	var transcription model.Transcription
	result := s.getDB(ctx).Preload("Analyses").First(&transcription, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying transcription: %w", result.Error)
	}
	return &transcription, nil
}

func (s *TranscriptionStore) List(ctx context.Context, username string, orgID string) (model.TranscriptionList, error) {
	var transcriptions model.TranscriptionList
	result := s.getDB(ctx).
		Where("username = ? AND org_id = ?", username, orgID).
		Order("created_at DESC").
		Find(&transcriptions)
	if result.Error != nil {
		return nil, fmt.Errorf("listing transcriptions: %w", result.Error)
	}
	return transcriptions, nil
}

func (s *TranscriptionStore) ListByStatus(ctx context.Context, status string) (model.TranscriptionList, error) {
	var transcriptions model.TranscriptionList
	result := s.getDB(ctx).Where("status = ?", status).Find(&transcriptions)
	if result.Error != nil {
		return nil, fmt.Errorf("listing transcriptions by status: %w", result.Error)
	}
	return transcriptions, nil
}

// UpdateStatus sets the status and the error column in one write. A nil
// errMsg clears the column to NULL, which the store treats as "absent"
// rather than "empty".
func (s *TranscriptionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error {
	result := s.getDB(ctx).
		Model(&model.Transcription{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "error": errMsg})
	if result.Error != nil {
		return fmt.Errorf("updating transcription status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ResetForRecovery flips a processing transcription back to pending and
// clears its error, but only if the row is still in processing. The
// conditional write closes the race against a worker completing the job
// between the reconciler's read and this update.
func (s *TranscriptionStore) ResetForRecovery(ctx context.Context, id uuid.UUID) (bool, error) {
	result := s.getDB(ctx).
		Model(&model.Transcription{}).
		Where("id = ? AND status = ?", id, model.TranscriptionStatusProcessing).
		Updates(map[string]any{"status": model.TranscriptionStatusPending, "error": nil})
	if result.Error != nil {
		return false, fmt.Errorf("resetting transcription for recovery: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *TranscriptionStore) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	result := s.getDB(ctx).
		Model(&model.Transcription{}).
		Where("id = ?", id).
		Update("summary", summary)
	if result.Error != nil {
		return fmt.Errorf("updating transcription summary: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *TranscriptionStore) SetPreferredLocale(ctx context.Context, id uuid.UUID, localeCode string) error {
	result := s.getDB(ctx).
		Model(&model.Transcription{}).
		Where("id = ?", id).
		Update("preferred_locale", localeCode)
	if result.Error != nil {
		return fmt.Errorf("updating preferred locale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *TranscriptionStore) CreateAnalysis(ctx context.Context, analysis *model.Analysis) (*model.Analysis, error) {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(analysis)
	if result.Error != nil {
		return nil, fmt.Errorf("creating analysis: %w", result.Error)
	}
	return analysis, nil
}

func (s *TranscriptionStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*model.Analysis, error) {
	var analysis model.Analysis
	result := s.getDB(ctx).First(&analysis, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying analysis: %w", result.Error)
	}
	return &analysis, nil
}

func (s *TranscriptionStore) ListAnalyses(ctx context.Context, transcriptionID uuid.UUID) ([]model.Analysis, error) {
	var analyses []model.Analysis
	result := s.getDB(ctx).
		Where("transcription_id = ?", transcriptionID).
		Order("created_at").
		Find(&analyses)
	if result.Error != nil {
		return nil, fmt.Errorf("listing analyses: %w", result.Error)
	}
	return analyses, nil
}

func (s *TranscriptionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
