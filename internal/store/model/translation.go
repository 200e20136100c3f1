package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SourceTypeSummary  = "summary"
	SourceTypeAnalysis = "analysis"
)

const (
	ContentKindText       = "text"
	ContentKindStructured = "structured"
)

// TranslationContent is a tagged variant: either plain text or a structured
// document whose shape must survive translation untouched.
type TranslationContent struct {
	Kind     string          `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Document json.RawMessage `json:"document,omitempty"`
}

func TextContent(text string) TranslationContent {
	return TranslationContent{Kind: ContentKindText, Text: text}
}

func StructuredContent(doc json.RawMessage) TranslationContent {
	return TranslationContent{Kind: ContentKindStructured, Document: doc}
}

// Validate rejects contents that do not match their own tag. Loose payloads
// are validated here at the boundary before they enter the translation core.
func (c TranslationContent) Validate() error {
	switch c.Kind {
	case ContentKindText:
		if len(c.Document) != 0 {
			return fmt.Errorf("text content carries a structured document")
		}
	case ContentKindStructured:
		if !json.Valid(c.Document) {
			return fmt.Errorf("structured content is not valid JSON")
		}
	default:
		return fmt.Errorf("unknown content kind %q", c.Kind)
	}
	return nil
}

// TranslationKey is the uniqueness tuple for a persisted translation. A
// lookup by this key is the idempotence point for translation work.
type TranslationKey struct {
	TranscriptionID uuid.UUID
	SourceType      string
	SourceID        uuid.UUID
	LocaleCode      string
	Username        string
}

type Translation struct {
	ID        uuid.UUID `gorm:"primaryKey;type:TEXT"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time

	TranscriptionID uuid.UUID `gorm:"not null;type:TEXT;uniqueIndex:translations_source_locale_user"`
	SourceType      string    `gorm:"not null;type:VARCHAR(32);uniqueIndex:translations_source_locale_user"`
	SourceID        uuid.UUID `gorm:"not null;type:TEXT;uniqueIndex:translations_source_locale_user"`
	LocaleCode      string    `gorm:"not null;type:VARCHAR(16);uniqueIndex:translations_source_locale_user"`
	Username        string    `gorm:"not null;type:VARCHAR(255);uniqueIndex:translations_source_locale_user"`

	LocaleName   string                         `gorm:"type:VARCHAR(100)"`
	Content      *JSONField[TranslationContent] `gorm:"type:jsonb;not null"`
	TranslatedBy string                         `gorm:"type:VARCHAR(100)"`
	TranslatedAt time.Time
}

type TranslationList []Translation

func (t Translation) Key() TranslationKey {
	return TranslationKey{
		TranscriptionID: t.TranscriptionID,
		SourceType:      t.SourceType,
		SourceID:        t.SourceID,
		LocaleCode:      t.LocaleCode,
		Username:        t.Username,
	}
}

func (t Translation) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}
