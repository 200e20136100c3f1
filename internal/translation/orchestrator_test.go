package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
)

// echoTranslator marks content as translated without a backend.
type echoTranslator struct{}

func (echoTranslator) TranslateBatch(_ context.Context, units []string, targetLanguage string) ([]string, error) {
	out := make([]string, len(units))
	for i, u := range units {
		if u == "" {
			continue
		}
		out[i] = fmt.Sprintf("[%s] %s", targetLanguage, u)
	}
	return out, nil
}

func (echoTranslator) TranslateDocument(_ context.Context, doc json.RawMessage, _ string) (json.RawMessage, error) {
	return doc, nil
}

func (echoTranslator) ModelName() string { return "echo" }

type failingTranslator struct{ echoTranslator }

func (failingTranslator) TranslateBatch(context.Context, []string, string) ([]string, error) {
	return nil, fmt.Errorf("backend down")
}

type fakeTranscriptionStore struct {
	store.Transcription

	transcription   *model.Transcription
	preferredLocale string
}

func (f *fakeTranscriptionStore) Get(_ context.Context, id uuid.UUID) (*model.Transcription, error) {
	if f.transcription == nil || f.transcription.ID != id {
		return nil, store.ErrRecordNotFound
	}
	return f.transcription, nil
}

func (f *fakeTranscriptionStore) SetPreferredLocale(_ context.Context, _ uuid.UUID, localeCode string) error {
	f.preferredLocale = localeCode
	return nil
}

type fakeTranslationStore struct {
	store.Translation

	mu      sync.Mutex
	records map[model.TranslationKey]model.Translation
}

func newFakeTranslationStore() *fakeTranslationStore {
	return &fakeTranslationStore{records: map[model.TranslationKey]model.Translation{}}
}

func (f *fakeTranslationStore) Create(_ context.Context, translation *model.Translation) (*model.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := translation.Key()
	if _, exists := f.records[key]; exists {
		return nil, store.ErrDuplicateKey
	}
	translation.ID = uuid.New()
	f.records[key] = *translation
	return translation, nil
}

func (f *fakeTranslationStore) GetByKey(_ context.Context, key model.TranslationKey) (*model.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[key]; ok {
		return &record, nil
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeTranslationStore) DeleteForLocale(_ context.Context, transcriptionID uuid.UUID, username string, localeCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.records {
		if key.TranscriptionID == transcriptionID && key.Username == username && key.LocaleCode == localeCode {
			delete(f.records, key)
		}
	}
	return nil
}

func (f *fakeTranslationStore) DistinctLocales(_ context.Context, transcriptionID uuid.UUID, username string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]struct{}{}
	var codes []string
	for key := range f.records {
		if key.TranscriptionID != transcriptionID || key.Username != username {
			continue
		}
		if _, ok := seen[key.LocaleCode]; ok {
			continue
		}
		seen[key.LocaleCode] = struct{}{}
		codes = append(codes, key.LocaleCode)
	}
	return codes, nil
}

func testUser() auth.User {
	return auth.User{Username: "alice", Organization: "acme"}
}

func testTranscription() *model.Transcription {
	summary := "First paragraph.\n\nSecond paragraph."
	return &model.Transcription{
		ID:       uuid.New(),
		Username: "alice",
		OrgID:    "acme",
		Status:   model.TranscriptionStatusCompleted,
		Summary:  &summary,
		Analyses: []model.Analysis{
			{
				ID:          uuid.New(),
				TemplateKey: "action_items",
				Title:       "Action items",
				Content:     model.MakeJSONField(model.StructuredContent(json.RawMessage(`{"title":"Action items","sections":[]}`))),
			},
		},
	}
}

func TestTranslateConversationCreatesAllContent(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, translations)

	result, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, "es-ES", transcriptions.preferredLocale)

	summaryKey := model.TranslationKey{
		TranscriptionID: transcriptions.transcription.ID,
		SourceType:      model.SourceTypeSummary,
		SourceID:        transcriptions.transcription.ID,
		LocaleCode:      "es-ES",
		Username:        "alice",
	}
	record, err := translations.GetByKey(context.Background(), summaryKey)
	require.NoError(t, err)
	assert.Equal(t, "echo", record.TranslatedBy)
	assert.Contains(t, record.Content.Data.Text, "[Spanish (Spain)]")
}

func TestTranslateConversationIsIdempotent(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, translations)

	first, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Len(t, translations.records, 2)
}

func TestTranslateConversationForceRecreates(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, translations)

	_, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)

	result, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Len(t, translations.records, 2)
}

func TestTranslateConversationUnsupportedLocale(t *testing.T) {
	orchestrator := NewOrchestrator(echoTranslator{}, &fakeTranscriptionStore{}, newFakeTranslationStore())

	_, err := orchestrator.TranslateConversation(context.Background(), uuid.New(), testUser(), "xx-XX", TranslateOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedLocale)
}

func TestTranslateConversationHidesForeignTranscriptions(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, newFakeTranslationStore())

	_, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, auth.User{Username: "mallory", Organization: "acme"}, "es-ES", TranslateOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTranslateConversationNoContent(t *testing.T) {
	transcription := testTranscription()
	transcription.Summary = nil
	transcription.Analyses = nil
	transcriptions := &fakeTranscriptionStore{transcription: transcription}
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, newFakeTranslationStore())

	result, err := orchestrator.TranslateConversation(context.Background(), transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
}

func TestTranslateConversationBackendFailure(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(failingTranslator{}, transcriptions, translations)

	_, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.Error(t, err)
	// the failing task was the summary; nothing must be half-committed for it
	for key := range translations.records {
		assert.NotEqual(t, model.SourceTypeSummary, key.SourceType)
	}
}

func TestPropagateNewContentCoversExistingLocales(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, translations)

	_, err := orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "es-ES", TranslateOptions{})
	require.NoError(t, err)
	_, err = orchestrator.TranslateConversation(context.Background(), transcriptions.transcription.ID, testUser(), "fr-FR", TranslateOptions{})
	require.NoError(t, err)

	analysis := &model.Analysis{
		ID:          uuid.New(),
		TemplateKey: "decisions",
		Title:       "Decisions",
		Content:     model.MakeJSONField(model.StructuredContent(json.RawMessage(`{"title":"Decisions","sections":[]}`))),
	}

	err = orchestrator.PropagateNewContent(context.Background(), analysis, transcriptions.transcription.ID, testUser())
	require.NoError(t, err)

	for _, code := range []string{"es-ES", "fr-FR"} {
		key := model.TranslationKey{
			TranscriptionID: transcriptions.transcription.ID,
			SourceType:      model.SourceTypeAnalysis,
			SourceID:        analysis.ID,
			LocaleCode:      code,
			Username:        "alice",
		}
		_, err := translations.GetByKey(context.Background(), key)
		assert.NoError(t, err, "expected propagated translation for %s", code)
	}
}

func TestPropagateNewContentNoLocalesIsNoop(t *testing.T) {
	transcriptions := &fakeTranscriptionStore{transcription: testTranscription()}
	translations := newFakeTranslationStore()
	orchestrator := NewOrchestrator(echoTranslator{}, transcriptions, translations)

	analysis := &model.Analysis{ID: uuid.New(), Content: model.MakeJSONField(model.TextContent("hello"))}
	err := orchestrator.PropagateNewContent(context.Background(), analysis, transcriptions.transcription.ID, testUser())
	require.NoError(t, err)
	assert.Empty(t, translations.records)
}
