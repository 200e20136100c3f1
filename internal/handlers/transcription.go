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

func (h *ServiceHandler) CreateTranscription(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("transcription_handler")
	user := auth.MustHaveUser(r.Context())

	var body CreateTranscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	transcription, err := h.transcriptionSrv.CreateTranscription(r.Context(), service.CreateTranscriptionRequest{
		AudioRef:  body.AudioRef,
		Context:   body.Context,
		Templates: body.Templates,
	}, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidRequest:
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			logger.Errorf("failed to create transcription: %v", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create transcription: %v", err))
		}
		return
	}

	respond(w, http.StatusCreated, transcriptionToReply(transcription))
}

func (h *ServiceHandler) GetTranscription(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("transcription_handler")
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transcription id")
		return
	}

	transcription, err := h.transcriptionSrv.GetTranscription(r.Context(), id, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			logger.Errorf("failed to get transcription %s: %v", id, err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get transcription: %v", err))
		}
		return
	}

	respond(w, http.StatusOK, transcriptionToReply(transcription))
}

func (h *ServiceHandler) ListTranscriptions(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("transcription_handler")
	user := auth.MustHaveUser(r.Context())

	transcriptions, err := h.transcriptionSrv.ListTranscriptions(r.Context(), user)
	if err != nil {
		logger.Errorf("failed to list transcriptions: %v", err)
		respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list transcriptions: %v", err))
		return
	}

	replies := make([]TranscriptionReply, 0, len(transcriptions))
	for i := range transcriptions {
		replies = append(replies, transcriptionToReply(&transcriptions[i]))
	}
	respond(w, http.StatusOK, replies)
}
