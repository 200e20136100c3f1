package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parlatext/parlatext/internal/llm"
	"github.com/parlatext/parlatext/pkg/metrics"
)

// EngineConfig carries the validation heuristics. Both values are tuned
// empirically, not proven, so they stay configurable.
type EngineConfig struct {
	// MinLengthRatio flags a translated unit as truncated when it shrinks
	// below this fraction of the source length.
	MinLengthRatio float64
	// LongUnitThreshold is the source length (in characters) above which
	// the shrink check applies at all.
	LongUnitThreshold int
	// DocumentRetries is the number of extra attempts for structured
	// document translation before giving up and returning the original.
	DocumentRetries int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinLengthRatio:    0.2,
		LongUnitThreshold: 50,
		DocumentRetries:   2,
	}
}

// Engine translates heterogeneous content with as few backend calls as
// possible, validates the results, and degrades to per-unit calls when a
// batch looks wrong.
type Engine struct {
	llm llm.Client
	cfg EngineConfig
}

func NewEngine(client llm.Client, cfg EngineConfig) *Engine {
	if cfg.MinLengthRatio <= 0 {
		cfg.MinLengthRatio = 0.2
	}
	if cfg.LongUnitThreshold <= 0 {
		cfg.LongUnitThreshold = 50
	}
	return &Engine{llm: client, cfg: cfg}
}

// ModelName reports which model produced the translations, recorded on the
// persisted translation rows.
func (e *Engine) ModelName() string {
	return e.llm.ModelName()
}

// TranslateBatch translates an ordered list of text units into the target
// language. The result has exactly the same length and order as the input;
// empty units pass through untouched, and a unit whose translation cannot
// be recovered keeps its source text.
func (e *Engine) TranslateBatch(ctx context.Context, units []string, targetLanguage string) ([]string, error) {
	result := make([]string, len(units))
	copy(result, units)

	// Empty units are filtered before the call: they waste batch slots, and
	// backends tend to hallucinate content when handed an empty segment.
	indexes := make([]int, 0, len(units))
	for i, u := range units {
		if strings.TrimSpace(u) != "" {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return result, nil
	}

	if len(indexes) == 1 {
		idx := indexes[0]
		translated, err := e.translateSingle(ctx, units[idx], targetLanguage)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.S().Named("translation").Warnf("single unit translation failed, keeping original: %v", err)
			return result, nil
		}
		result[idx] = translated
		return result, nil
	}

	translated, err := e.translateBatched(ctx, units, indexes, targetLanguage)
	if err == nil {
		for i, idx := range indexes {
			result[idx] = translated[i]
		}
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// The whole batch is invalid; one corrupted response must not leak into
	// any unit, so each one is retried in isolation.
	zap.S().Named("translation").Warnf("batch translation invalid, falling back to per-unit calls: %v", err)
	metrics.IncreaseTranslationBatchFallbacksMetric()

	return e.translateIndividually(ctx, result, indexes, targetLanguage)
}

func (e *Engine) translateBatched(ctx context.Context, units []string, indexes []int, targetLanguage string) ([]string, error) {
	response, err := e.llm.Complete(ctx,
		batchSystemPrompt(targetLanguage),
		batchUserPrompt(units, indexes),
		llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("batch call: %w", err)
	}

	parts, ok := parseBatchResponse(response, len(indexes))
	if !ok {
		return nil, fmt.Errorf("response does not split into %d segments", len(indexes))
	}

	sources := make([]string, len(indexes))
	for i, idx := range indexes {
		sources[i] = units[idx]
	}
	if err := e.validateBatch(sources, parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// validateBatch rejects a parsed batch when any unit vanished or shrank
// suspiciously. Any violation invalidates the entire batch.
func (e *Engine) validateBatch(sources []string, parts []string) error {
	if len(sources) != len(parts) {
		return fmt.Errorf("segment count mismatch: sent %d, got %d", len(sources), len(parts))
	}
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("segment %d came back empty", i+1)
		}
		srcLen := len([]rune(sources[i]))
		if srcLen > e.cfg.LongUnitThreshold {
			if float64(len([]rune(part))) < e.cfg.MinLengthRatio*float64(srcLen) {
				return fmt.Errorf("segment %d shrank from %d to %d characters", i+1, srcLen, len([]rune(part)))
			}
		}
	}
	return nil
}

// translateIndividually issues one call per unit. Slower, but each unit's
// failure is isolated: a unit that cannot be translated keeps its source
// text so the output never has a gap.
func (e *Engine) translateIndividually(ctx context.Context, result []string, indexes []int, targetLanguage string) ([]string, error) {
	for _, idx := range indexes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		translated, err := e.translateSingle(ctx, result[idx], targetLanguage)
		if err != nil {
			zap.S().Named("translation").Warnf("unit %d translation failed, keeping original: %v", idx, err)
			continue
		}
		result[idx] = translated
	}
	return result, nil
}

func (e *Engine) translateSingle(ctx context.Context, text string, targetLanguage string) (string, error) {
	response, err := e.llm.Complete(ctx, singleSystemPrompt(targetLanguage), text, llm.Options{})
	if err != nil {
		return "", err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("backend returned an empty translation")
	}
	return response, nil
}

// TranslateDocument translates only the string leaves of a structured JSON
// document, preserving its shape exactly. Translation is best-effort: after
// the configured retries the original document is returned unchanged rather
// than corrupted or dropped.
func (e *Engine) TranslateDocument(ctx context.Context, doc json.RawMessage, targetLanguage string) (json.RawMessage, error) {
	var source any
	if err := json.Unmarshal(doc, &source); err != nil {
		return nil, fmt.Errorf("source document is not valid JSON: %w", err)
	}

	attempts := e.cfg.DocumentRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		response, err := e.llm.Complete(ctx,
			documentSystemPrompt(targetLanguage),
			string(doc),
			llm.Options{JSONMode: true})
		if err != nil {
			zap.S().Named("translation").Warnf("document translation attempt %d failed: %v", attempt, err)
			continue
		}

		response = stripCodeFence(response)
		if response == "" {
			zap.S().Named("translation").Warnf("document translation attempt %d returned empty response", attempt)
			continue
		}

		var translated any
		if err := json.Unmarshal([]byte(response), &translated); err != nil {
			zap.S().Named("translation").Warnf("document translation attempt %d returned invalid JSON: %v", attempt, err)
			continue
		}
		if !sameShape(source, translated) {
			zap.S().Named("translation").Warnf("document translation attempt %d changed the document shape", attempt)
			continue
		}

		return json.RawMessage(response), nil
	}

	zap.S().Named("translation").Warnf("document translation exhausted %d attempts, keeping original", attempts)
	return doc, nil
}

// sameShape reports whether two decoded JSON values share the same
// structure: identical key sets, array lengths, and value types, with only
// string leaves allowed to differ.
func sameShape(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, found := bv[k]
			if !found || !sameShape(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameShape(av[i], bv[i]) {
				return false
			}
		}
		return true
	case string:
		_, ok := b.(string)
		return ok
	case nil:
		return b == nil
	default:
		// numbers and booleans are not translatable and must survive intact
		return a == b
	}
}
