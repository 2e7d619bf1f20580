package store

import (
	"context"
	"fmt"

	"plantar/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SampleStore struct{ db *gorm.DB }

func (s *Store) Samples() *SampleStore { return &SampleStore{db: s.DB} }

// Append inserts a sample after checking, under a row lock, that its session exists
// and has not ended. Unknown sessions report ErrNotFound, ended ones ErrConflict.
func (ss *SampleStore) Append(ctx context.Context, sample *domain.Sample) error {
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	return translate(ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess domain.Session
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "status").
			First(&sess, "id = ?", sample.SessionID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: session %s", domain.ErrNotFound, sample.SessionID)
			}
			return err
		}
		if sess.Status.Terminal() {
			return fmt.Errorf("%w: session %s has ended", domain.ErrConflict, sample.SessionID)
		}
		return tx.Create(sample).Error
	}))
}

// ListBySession returns a session's samples, newest capture first.
func (ss *SampleStore) ListBySession(ctx context.Context, sessionID uuid.UUID, page domain.Page) ([]domain.Sample, error) {
	var out []domain.Sample
	err := ss.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("captured_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (ss *SampleStore) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := ss.db.WithContext(ctx).Model(&domain.Sample{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, translate(err)
}
