package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/parlatext/parlatext/internal/store/model"
	"github.com/parlatext/parlatext/internal/translation"
)

type CreateTranscriptionRequest struct {
	AudioRef  string   `json:"audio_ref"`
	Context   string   `json:"context,omitempty"`
	Templates []string `json:"templates,omitempty"`
}

type TranslateRequest struct {
	LocaleCode string `json:"locale_code"`
	Force      bool   `json:"force,omitempty"`
}

type AnalysisReply struct {
	ID          uuid.UUID                `json:"id"`
	TemplateKey string                   `json:"template_key"`
	Title       string                   `json:"title"`
	Content     model.TranslationContent `json:"content"`
}

type TranscriptionReply struct {
	ID              uuid.UUID       `json:"id"`
	Status          string          `json:"status"`
	AudioRef        string          `json:"audio_ref"`
	Context         string          `json:"context,omitempty"`
	Templates       []string        `json:"templates,omitempty"`
	Error           *string         `json:"error,omitempty"`
	Summary         *string         `json:"summary,omitempty"`
	PreferredLocale *string         `json:"preferred_locale,omitempty"`
	Analyses        []AnalysisReply `json:"analyses,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type TranslationReply struct {
	ID           uuid.UUID                `json:"id"`
	SourceType   string                   `json:"source_type"`
	SourceID     uuid.UUID                `json:"source_id"`
	LocaleCode   string                   `json:"locale_code"`
	LocaleName   string                   `json:"locale_name,omitempty"`
	Content      model.TranslationContent `json:"content"`
	TranslatedBy string                   `json:"translated_by,omitempty"`
	TranslatedAt time.Time                `json:"translated_at"`
}

type TranslateReply struct {
	Created      int                `json:"created"`
	Translations []TranslationReply `json:"translations"`
}

type LocaleReply struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

func transcriptionToReply(t *model.Transcription) TranscriptionReply {
	reply := TranscriptionReply{
		ID:              t.ID,
		Status:          t.Status,
		AudioRef:        t.AudioRef,
		Context:         t.Context,
		Templates:       t.TemplateKeys(),
		Error:           t.Error,
		Summary:         t.Summary,
		PreferredLocale: t.PreferredLocale,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for i := range t.Analyses {
		reply.Analyses = append(reply.Analyses, analysisToReply(&t.Analyses[i]))
	}
	return reply
}

func analysisToReply(a *model.Analysis) AnalysisReply {
	reply := AnalysisReply{
		ID:          a.ID,
		TemplateKey: a.TemplateKey,
		Title:       a.Title,
	}
	if a.Content != nil {
		reply.Content = a.Content.Data
	}
	return reply
}

func translationToReply(t *model.Translation) TranslationReply {
	reply := TranslationReply{
		ID:           t.ID,
		SourceType:   t.SourceType,
		SourceID:     t.SourceID,
		LocaleCode:   t.LocaleCode,
		LocaleName:   t.LocaleName,
		TranslatedBy: t.TranslatedBy,
		TranslatedAt: t.TranslatedAt,
	}
	if t.Content != nil {
		reply.Content = t.Content.Data
	}
	return reply
}

func localeToReply(l translation.Locale) LocaleReply {
	return LocaleReply{Code: l.Code, Name: l.Name, NativeName: l.NativeName}
}
