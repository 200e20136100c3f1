package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parlatext/parlatext/internal/service"
	"github.com/parlatext/parlatext/pkg/requestid"
)

type ServiceHandler struct {
	transcriptionSrv *service.TranscriptionService
	translationSrv   *service.TranslationService
}

func NewServiceHandler(transcriptionSrv *service.TranscriptionService, translationSrv *service.TranslationService) *ServiceHandler {
	return &ServiceHandler{
		transcriptionSrv: transcriptionSrv,
		translationSrv:   translationSrv,
	}
}

func (h *ServiceHandler) Routes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/transcriptions", h.CreateTranscription)
		r.Get("/transcriptions", h.ListTranscriptions)
		r.Get("/transcriptions/{id}", h.GetTranscription)
		r.Post("/transcriptions/{id}/translations", h.TranslateTranscription)
		r.Get("/transcriptions/{id}/translations", h.ListTranslations)
		r.Get("/locales", h.ListLocales)
	})
}

type errorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func respond(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	respond(w, statusCode, errorResponse{
		Message:   message,
		RequestID: requestid.FromContext(r.Context()),
	})
}
