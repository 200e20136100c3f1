package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parlatext/parlatext/internal/auth"
	"github.com/parlatext/parlatext/internal/store"
	"github.com/parlatext/parlatext/internal/store/model"
	"github.com/parlatext/parlatext/pkg/metrics"
)

var (
	ErrUnsupportedLocale = errors.New("unsupported locale")
	ErrNotFound          = errors.New("transcription not found")
)

// ContentTranslator is the slice of the engine the orchestrator needs.
type ContentTranslator interface {
	TranslateBatch(ctx context.Context, units []string, targetLanguage string) ([]string, error)
	TranslateDocument(ctx context.Context, doc json.RawMessage, targetLanguage string) (json.RawMessage, error)
	ModelName() string
}

var _ ContentTranslator = (*Engine)(nil)

type TranslateOptions struct {
	// Force deletes existing translations for the locale before
	// translating again, as a repair path for corrupted prior output.
	Force bool
}

type TranslateResult struct {
	Created      int
	Translations []model.Translation
}

// Orchestrator decides which content needs translation for a target locale,
// runs the independent tasks concurrently, and keeps translations in sync
// when new content shows up later.
type Orchestrator struct {
	engine         ContentTranslator
	transcriptions store.Transcription
	translations   store.Translation
	nowFn          func() time.Time
}

func NewOrchestrator(engine ContentTranslator, transcriptions store.Transcription, translations store.Translation) *Orchestrator {
	return &Orchestrator{
		engine:         engine,
		transcriptions: transcriptions,
		translations:   translations,
		nowFn:          time.Now,
	}
}

// TranslateConversation translates the summary and every analysis of a
// transcription into the target locale. It is idempotent: content already
// translated for the (content, locale, user) key is skipped, so repeated
// calls create no duplicates.
func (o *Orchestrator) TranslateConversation(ctx context.Context, transcriptionID uuid.UUID, user auth.User, localeCode string, opts TranslateOptions) (*TranslateResult, error) {
	locale, ok := LocaleByCode(localeCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocale, localeCode)
	}

	transcription, err := o.ownedTranscription(ctx, transcriptionID, user)
	if err != nil {
		return nil, err
	}

	if opts.Force {
		if err := o.translations.DeleteForLocale(ctx, transcriptionID, user.Username, locale.Code); err != nil {
			return nil, fmt.Errorf("deleting stale translations: %w", err)
		}
	}

	tasks := o.buildTasks(transcription)
	if len(tasks) == 0 {
		return &TranslateResult{}, nil
	}

	// The tasks share no mutable state and only contend on the backend and
	// the datastore, so they run concurrently. Each record has a unique key,
	// so there are no write conflicts to coordinate.
	var (
		mu      sync.Mutex
		created []model.Translation
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			record, err := o.translateTask(gctx, task, user, locale)
			if err != nil {
				return err
			}
			if record != nil {
				mu.Lock()
				created = append(created, *record)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := o.transcriptions.SetPreferredLocale(ctx, transcriptionID, locale.Code); err != nil {
		return nil, fmt.Errorf("updating preferred locale: %w", err)
	}

	return &TranslateResult{Created: len(created), Translations: created}, nil
}

// PropagateNewContent translates a freshly generated analysis into every
// locale the conversation has already been translated to. Each locale is
// best-effort: one failure must not block the others.
func (o *Orchestrator) PropagateNewContent(ctx context.Context, analysis *model.Analysis, transcriptionID uuid.UUID, user auth.User) error {
	localeCodes, err := o.translations.DistinctLocales(ctx, transcriptionID, user.Username)
	if err != nil {
		return fmt.Errorf("listing existing locales: %w", err)
	}

	task := translationTask{
		transcriptionID: transcriptionID,
		sourceType:      model.SourceTypeAnalysis,
		sourceID:        analysis.ID,
		content:         analysisContent(analysis),
	}

	for _, code := range localeCodes {
		locale, ok := LocaleByCode(code)
		if !ok {
			zap.S().Named("translation").Warnf("skipping unknown stored locale %q", code)
			continue
		}
		if _, err := o.translateTask(ctx, task, user, locale); err != nil {
			zap.S().Named("translation").Errorf("failed to propagate analysis %s to %s: %v", analysis.ID, locale.Code, err)
			continue
		}
	}
	return nil
}

type translationTask struct {
	transcriptionID uuid.UUID
	sourceType      string
	sourceID        uuid.UUID
	content         model.TranslationContent
}

func (o *Orchestrator) buildTasks(transcription *model.Transcription) []translationTask {
	var tasks []translationTask

	if transcription.Summary != nil && strings.TrimSpace(*transcription.Summary) != "" {
		tasks = append(tasks, translationTask{
			transcriptionID: transcription.ID,
			sourceType:      model.SourceTypeSummary,
			sourceID:        transcription.ID,
			content:         model.TextContent(*transcription.Summary),
		})
	}

	for _, analysis := range transcription.Analyses {
		tasks = append(tasks, translationTask{
			transcriptionID: transcription.ID,
			sourceType:      model.SourceTypeAnalysis,
			sourceID:        analysis.ID,
			content:         analysisContent(&analysis),
		})
	}
	return tasks
}

// translateTask translates one content unit, unless a translation already
// exists for its key. Returns the created record, or nil when skipped.
func (o *Orchestrator) translateTask(ctx context.Context, task translationTask, user auth.User, locale Locale) (*model.Translation, error) {
	key := model.TranslationKey{
		TranscriptionID: task.transcriptionID,
		SourceType:      task.sourceType,
		SourceID:        task.sourceID,
		LocaleCode:      locale.Code,
		Username:        user.Username,
	}

	if _, err := o.translations.GetByKey(ctx, key); err == nil {
		return nil, nil
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	if err := task.content.Validate(); err != nil {
		return nil, fmt.Errorf("source content for %s %s: %w", task.sourceType, task.sourceID, err)
	}

	translated, err := o.translateContent(ctx, task.content, locale)
	if err != nil {
		return nil, err
	}

	record := &model.Translation{
		TranscriptionID: task.transcriptionID,
		SourceType:      task.sourceType,
		SourceID:        task.sourceID,
		LocaleCode:      locale.Code,
		LocaleName:      locale.Name,
		Username:        user.Username,
		Content:         model.MakeJSONField(translated),
		TranslatedBy:    o.engine.ModelName(),
		TranslatedAt:    o.nowFn(),
	}

	stored, err := o.translations.Create(ctx, record)
	if err != nil {
		// a concurrent caller won the race for this key; their record stands
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, nil
		}
		return nil, err
	}

	metrics.IncreaseTranslationsCreatedMetric(locale.Code)
	return stored, nil
}

func (o *Orchestrator) translateContent(ctx context.Context, content model.TranslationContent, locale Locale) (model.TranslationContent, error) {
	switch content.Kind {
	case model.ContentKindText:
		units := strings.Split(content.Text, "\n\n")
		translated, err := o.engine.TranslateBatch(ctx, units, locale.Name)
		if err != nil {
			return model.TranslationContent{}, err
		}
		return model.TextContent(strings.Join(translated, "\n\n")), nil
	case model.ContentKindStructured:
		translated, err := o.engine.TranslateDocument(ctx, content.Document, locale.Name)
		if err != nil {
			return model.TranslationContent{}, err
		}
		return model.StructuredContent(translated), nil
	default:
		return model.TranslationContent{}, fmt.Errorf("unknown content kind %q", content.Kind)
	}
}

func (o *Orchestrator) ownedTranscription(ctx context.Context, id uuid.UUID, user auth.User) (*model.Transcription, error) {
	transcription, err := o.transcriptions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// ownership failures are indistinguishable from missing records on purpose
	if transcription.Username != user.Username || transcription.OrgID != user.Organization {
		return nil, ErrNotFound
	}
	return transcription, nil
}

func analysisContent(analysis *model.Analysis) model.TranslationContent {
	if analysis.Content == nil {
		return model.TextContent("")
	}
	return analysis.Content.Data
}
