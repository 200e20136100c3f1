package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/jobs"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
)

type TranscriptionService struct {
	store    store.Store
	enqueuer jobs.Enqueuer
}

func NewTranscriptionService(s store.Store, enqueuer jobs.Enqueuer) *TranscriptionService {
	return &TranscriptionService{store: s, enqueuer: enqueuer}
}

type CreateTranscriptionRequest struct {
	AudioRef  string
	Context   string
	Templates []string
}

// CreateTranscription persists a pending transcription and enqueues its
// queue task.
func (s *TranscriptionService) CreateTranscription(ctx context.Context, req CreateTranscriptionRequest, user auth.User) (*model.Transcription, error) {
	if strings.TrimSpace(req.AudioRef) == "" {
		return nil, NewErrInvalidRequest("audio reference is required")
	}

	transcription := &model.Transcription{
		Username: user.Username,
		OrgID:    user.Organization,
		Status:   model.TranscriptionStatusPending,
		AudioRef: req.AudioRef,
		Context:  req.Context,
	}
	if len(req.Templates) > 0 {
		transcription.Templates = model.MakeJSONField(req.Templates)
	}

	created, err := s.store.Transcription().Create(ctx, transcription)
	if err != nil {
		return nil, fmt.Errorf("creating transcription: %w", err)
	}

	args := jobs.TranscribeArgs{
		TranscriptionID: created.ID,
		OrgID:           user.Organization,
		Username:        user.Username,
		AudioRef:        created.AudioRef,
		Context:         created.Context,
		Templates:       created.TemplateKeys(),
	}
	if _, err := s.enqueuer.InsertTranscribeJob(ctx, args); err != nil {
		zap.S().Named("transcription_service").Errorf("failed to enqueue transcription %s: %v", created.ID, err)
		return nil, fmt.Errorf("enqueueing transcription: %w", err)
	}

	return created, nil
}

func (s *TranscriptionService) GetTranscription(ctx context.Context, id uuid.UUID, user auth.User) (*model.Transcription, error) {
	transcription, err := s.store.Transcription().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrTranscriptionNotFound(id)
		}
		return nil, err
	}
	if transcription.Username != user.Username || transcription.OrgID != user.Organization {
		return nil, NewErrTranscriptionNotFound(id)
	}
	return transcription, nil
}

func (s *TranscriptionService) ListTranscriptions(ctx context.Context, user auth.User) (model.TranscriptionList, error) {
	return s.store.Transcription().List(ctx, user.Username, user.Organization)
}
