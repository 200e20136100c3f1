package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/llm"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
	"github.com/parlatext/parlatext/internal/transcriber"
	"github.com/parlatext/parlatext/internal/translation"
)

const summarySystemPrompt = `You are an assistant that writes concise meeting summaries. Summarize the following conversation transcript in a few short paragraphs. Keep speaker attributions where they matter. Output the summary and nothing else.`

const analysisSystemPromptTemplate = `You are an assistant that extracts structured insights from conversation transcripts. Apply the "%s" analysis to the transcript below and answer with a single JSON object of the form {"title": string, "sections": [{"heading": string, "items": [string, ...]}, ...]}. Output JSON only.`

type TranscribeWorker struct {
	river.WorkerDefaults[TranscribeArgs]

	store        store.Store
	transcriber  transcriber.Client
	llm          llm.Client
	orchestrator *translation.Orchestrator
}

func NewTranscribeWorker(s store.Store, t transcriber.Client, l llm.Client, o *translation.Orchestrator) *TranscribeWorker {
	return &TranscribeWorker{store: s, transcriber: t, llm: l, orchestrator: o}
}

func (w *TranscribeWorker) Timeout(*river.Job[TranscribeArgs]) time.Duration {
	return JobTimeout
}

func (w *TranscribeWorker) Work(ctx context.Context, job *river.Job[TranscribeArgs]) error {
	logger := zap.S().Named("transcribe_worker")
	args := job.Args

	transcription, err := w.store.Transcription().Get(ctx, args.TranscriptionID)
	if err != nil {
		return fmt.Errorf("loading transcription %s: %w", args.TranscriptionID, err)
	}

	// A duplicate queue task (e.g. one produced by a racing recovery pass)
	// must not redo finished work.
	switch transcription.Status {
	case model.TranscriptionStatusCompleted, model.TranscriptionStatusFailed:
		logger.Infof("transcription %s already %s, skipping queue task", transcription.ID, transcription.Status)
		return nil
	}

	if err := w.store.Transcription().UpdateStatus(ctx, transcription.ID, model.TranscriptionStatusProcessing, nil); err != nil {
		return fmt.Errorf("marking transcription %s processing: %w", transcription.ID, err)
	}

	result, err := w.transcriber.Transcribe(ctx, args.AudioRef, "")
	if err != nil {
		return fmt.Errorf("transcribing %s: %w", transcription.ID, err)
	}

	summary, err := w.summarize(ctx, result, args.Context)
	if err != nil {
		return fmt.Errorf("summarizing %s: %w", transcription.ID, err)
	}
	if err := w.store.Transcription().SetSummary(ctx, transcription.ID, summary); err != nil {
		return fmt.Errorf("storing summary for %s: %w", transcription.ID, err)
	}

	user := auth.User{Username: args.Username, Organization: args.OrgID}
	for _, templateKey := range args.Templates {
		analysis, err := w.analyze(ctx, transcription.ID, templateKey, result)
		if err != nil {
			return fmt.Errorf("analysis %q for %s: %w", templateKey, transcription.ID, err)
		}

		// New content reaches already-translated locales best-effort; a
		// propagation failure must not fail the transcription itself.
		if err := w.orchestrator.PropagateNewContent(ctx, analysis, transcription.ID, user); err != nil {
			logger.Errorf("failed to propagate analysis %s: %v", analysis.ID, err)
		}
	}

	if err := w.store.Transcription().UpdateStatus(ctx, transcription.ID, model.TranscriptionStatusCompleted, nil); err != nil {
		return fmt.Errorf("marking transcription %s completed: %w", transcription.ID, err)
	}

	logger.Infof("transcription %s completed", transcription.ID)
	return nil
}

func (w *TranscribeWorker) summarize(ctx context.Context, result *transcriber.Result, uploadContext string) (string, error) {
	prompt := result.Text
	if strings.TrimSpace(uploadContext) != "" {
		prompt = fmt.Sprintf("Context provided by the uploader: %s\n\nTranscript:\n%s", uploadContext, result.Text)
	}

	summary, err := w.llm.Complete(ctx, summarySystemPrompt, prompt, llm.Options{})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("summary came back empty")
	}
	return summary, nil
}

func (w *TranscribeWorker) analyze(ctx context.Context, transcriptionID uuid.UUID, templateKey string, result *transcriber.Result) (*model.Analysis, error) {
	response, err := w.llm.Complete(ctx,
		fmt.Sprintf(analysisSystemPromptTemplate, templateKey),
		result.Text,
		llm.Options{JSONMode: true})
	if err != nil {
		return nil, err
	}

	var doc struct {
		Title string `json:"title"`
	}
	raw := json.RawMessage(response)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}

	analysis := &model.Analysis{
		TranscriptionID: transcriptionID,
		TemplateKey:     templateKey,
		Title:           doc.Title,
		Content:         model.MakeJSONField(model.StructuredContent(raw)),
	}
	return w.store.Transcription().CreateAnalysis(ctx, analysis)
}
