package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
	"github.com/parlatext/parlatext/internal/translation"
)

type TranslationService struct {
	store        store.Store
	orchestrator *translation.Orchestrator
}

func NewTranslationService(s store.Store, orchestrator *translation.Orchestrator) *TranslationService {
	return &TranslationService{store: s, orchestrator: orchestrator}
}

type TranslateRequest struct {
	LocaleCode string
	Force      bool
}

func (s *TranslationService) TranslateTranscription(ctx context.Context, transcriptionID uuid.UUID, req TranslateRequest, user auth.User) (*translation.TranslateResult, error) {
	if req.LocaleCode == "" {
		return nil, NewErrInvalidRequest("locale code is required")
	}

	result, err := s.orchestrator.TranslateConversation(ctx, transcriptionID, user, req.LocaleCode, translation.TranslateOptions{Force: req.Force})
	if err != nil {
		switch {
		case errors.Is(err, translation.ErrUnsupportedLocale):
			return nil, NewErrUnsupportedLocale(req.LocaleCode)
		case errors.Is(err, translation.ErrNotFound):
			return nil, NewErrTranscriptionNotFound(transcriptionID)
		}
		return nil, fmt.Errorf("translating transcription %s: %w", transcriptionID, err)
	}
	return result, nil
}

func (s *TranslationService) ListTranslations(ctx context.Context, transcriptionID uuid.UUID, user auth.User) (model.TranslationList, error) {
	transcription, err := s.store.Transcription().Get(ctx, transcriptionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTranscriptionNotFound(transcriptionID)
		}
		return nil, err
	}
	if transcription.Username != user.Username || transcription.OrgID != user.Organization {
		return nil, NewErrTranscriptionNotFound(transcriptionID)
	}
	return s.store.Translation().List(ctx, transcriptionID, user.Username)
}

func (s *TranslationService) SupportedLocales() []translation.Locale {
	return translation.Locales()
}
