package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTranslationContentValidate(t *testing.T) {
	assert.NoError(t, TextContent("hello").Validate())
	assert.NoError(t, TextContent("").Validate())
	assert.NoError(t, StructuredContent(json.RawMessage(`{"title":"x"}`)).Validate())

	assert.Error(t, StructuredContent(json.RawMessage(`{broken`)).Validate())
	assert.Error(t, StructuredContent(nil).Validate())
	assert.Error(t, TranslationContent{Kind: "binary"}.Validate())

	mixed := TextContent("hello")
	mixed.Document = json.RawMessage(`{}`)
	assert.Error(t, mixed.Validate())
}

func TestTranslationKeyIgnoresContent(t *testing.T) {
	transcriptionID := uuid.New()
	sourceID := uuid.New()

	a := Translation{
		ID:              uuid.New(),
		TranscriptionID: transcriptionID,
		SourceType:      SourceTypeAnalysis,
		SourceID:        sourceID,
		LocaleCode:      "es-ES",
		Username:        "alice",
		Content:         MakeJSONField(TextContent("hola")),
	}
	b := Translation{
		ID:              uuid.New(),
		TranscriptionID: transcriptionID,
		SourceType:      SourceTypeAnalysis,
		SourceID:        sourceID,
		LocaleCode:      "es-ES",
		Username:        "alice",
		Content:         MakeJSONField(TextContent("different")),
	}

	assert.Equal(t, a.Key(), b.Key())

	b.LocaleCode = "fr-FR"
	assert.NotEqual(t, a.Key(), b.Key())
}
