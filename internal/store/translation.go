package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parlatext/parlatext/internal/store/model"
)

type Translation interface {
	Create(ctx context.Context, translation *model.Translation) (*model.Translation, error)
	GetByKey(ctx context.Context, key model.TranslationKey) (*model.Translation, error)
	List(ctx context.Context, transcriptionID uuid.UUID, username string) (model.TranslationList, error)
	DeleteForLocale(ctx context.Context, transcriptionID uuid.UUID, username string, localeCode string) error
	DistinctLocales(ctx context.Context, transcriptionID uuid.UUID, username string) ([]string, error)
}

type TranslationStore struct {
	db *gorm.DB
}

// Make sure we conform to Translation interface
var _ Translation = (*TranslationStore)(nil)

func NewTranslationStore(db *gorm.DB) Translation {
	return &TranslationStore{db: db}
}

func (s *TranslationStore) Create(ctx context.Context, translation *model.Translation) (*model.Translation, error) {
	if translation.ID == uuid.Nil {
		translation.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(translation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating translation: %w", result.Error)
	}
	return translation, nil
}

func (s *TranslationStore) GetByKey(ctx context.Context, key model.TranslationKey) (*model.Translation, error) {
	var translation model.Translation
	result := s.getDB(ctx).First(&translation,
		"transcription_id = ? AND source_type = ? AND source_id = ? AND locale_code = ? AND username = ?",
		key.TranscriptionID, key.SourceType, key.SourceID, key.LocaleCode, key.Username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying translation: %w", result.Error)
	}
	return &translation, nil
}

func (s *TranslationStore) List(ctx context.Context, transcriptionID uuid.UUID, username string) (model.TranslationList, error) {
	var translations model.TranslationList
	result := s.getDB(ctx).
		Where("transcription_id = ? AND username = ?", transcriptionID, username).
		Order("created_at").
		Find(&translations)
	if result.Error != nil {
		return nil, fmt.Errorf("listing translations: %w", result.Error)
	}
	return translations, nil
}

func (s *TranslationStore) DeleteForLocale(ctx context.Context, transcriptionID uuid.UUID, username string, localeCode string) error {
	result := s.getDB(ctx).
		Where("transcription_id = ? AND username = ? AND locale_code = ?", transcriptionID, username, localeCode).
		Delete(&model.Translation{})
	if result.Error != nil {
		return fmt.Errorf("deleting translations for locale: %w", result.Error)
	}
	return nil
}

func (s *TranslationStore) DistinctLocales(ctx context.Context, transcriptionID uuid.UUID, username string) ([]string, error) {
	var locales []string
	result := s.getDB(ctx).
		Model(&model.Translation{}).
		Distinct("locale_code").
		Where("transcription_id = ? AND username = ?", transcriptionID, username).
		Pluck("locale_code", &locales)
	if result.Error != nil {
		return nil, fmt.Errorf("listing translation locales: %w", result.Error)
	}
	return locales, nil
}

func (s *TranslationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
