package store

import (
	"context"
	"fmt"
	"time"

	"plantar/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{db: s.DB} }

func (ss *SessionStore) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.StartedAt
	}
	return translate(ss.db.WithContext(ctx).Create(s).Error)
}

func (ss *SessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	if err := ss.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// List returns sessions newest first. A nil owner lists every owner's sessions.
func (ss *SessionStore) List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]domain.Session, error) {
	q := ss.db.WithContext(ctx).Model(&domain.Session{})
	if owner != uuid.Nil {
		q = q.Where("owner_id = ?", owner)
	}
	var out []domain.Session
	err := q.Order("started_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Update writes status, ended_at and note only if the row still carries
// expectedVersion and is not already ended. A lost race reports ErrConflict.
func (ss *SessionStore) Update(ctx context.Context, s *domain.Session, expectedVersion int) error {
	now := s.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND version = ? AND status <> ?", s.ID, expectedVersion, string(domain.SessionEnded)).
		Updates(map[string]any{
			"status":     string(s.Status),
			"ended_at":   s.EndedAt,
			"note":       s.Note,
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if err := translate(tx.Error); err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: session %s was modified concurrently or has ended", domain.ErrConflict, s.ID)
	}
	s.Version = expectedVersion + 1
	s.UpdatedAt = now
	return nil
}
