package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/service"
)

func (h *ServiceHandler) TranslateTranscription(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("translation_handler")
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transcription id")
		return
	}

	var body TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := h.translationSrv.TranslateTranscription(r.Context(), id, service.TranslateRequest{
		LocaleCode: body.LocaleCode,
		Force:      body.Force,
	}, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidRequest:
			respondError(w, r, http.StatusBadRequest, err.Error())
		case *service.ErrUnsupportedLocale:
			respondError(w, r, http.StatusBadRequest, err.Error())
		case *service.ErrResourceNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			logger.Errorf("failed to translate transcription %s: %v", id, err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to translate transcription: %v", err))
		}
		return
	}

	reply := TranslateReply{
		Created:      result.Created,
		Translations: make([]TranslationReply, 0, len(result.Translations)),
	}
	for i := range result.Translations {
		reply.Translations = append(reply.Translations, translationToReply(&result.Translations[i]))
	}
	respond(w, http.StatusOK, reply)
}

func (h *ServiceHandler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("translation_handler")
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transcription id")
		return
	}

	translations, err := h.translationSrv.ListTranslations(r.Context(), id, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			logger.Errorf("failed to list translations for %s: %v", id, err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list translations: %v", err))
		}
		return
	}

	replies := make([]TranslationReply, 0, len(translations))
	for i := range translations {
		replies = append(replies, translationToReply(&translations[i]))
	}
	respond(w, http.StatusOK, replies)
}

func (h *ServiceHandler) ListLocales(w http.ResponseWriter, r *http.Request) {
	locales := h.translationSrv.SupportedLocales()
	replies := make([]LocaleReply, 0, len(locales))
	for _, locale := range locales {
		replies = append(replies, localeToReply(locale))
	}
	respond(w, http.StatusOK, replies)
}
