package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/parlatext/parlatext/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Transcription() Transcription
	Translation() Translation
	QueueJob() QueueJob
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db            *gorm.DB
	transcription Transcription
	translation   Translation
	queueJob      QueueJob
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:            db,
		transcription: NewTranscriptionStore(db),
		translation:   NewTranslationStore(db),
		queueJob:      NewQueueJobStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Transcription() Transcription {
	return s.transcription
}

func (s *DataStore) Translation() Translation {
	return s.translation
}

func (s *DataStore) QueueJob() QueueJob {
	return s.queueJob
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Transcription{},
		&model.Analysis{},
		&model.Translation{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
