package store

import (
	"context"

	"plantar/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStore struct{ db *gorm.DB }

func (s *Store) Reports() *ReportStore { return &ReportStore{db: s.DB} }

func (rs *ReportStore) Create(ctx context.Context, r *domain.Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return translate(rs.db.WithContext(ctx).Create(r).Error)
}

func (rs *ReportStore) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var r domain.Report
	if err := rs.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// List returns reports newest first. A nil user lists every user's reports.
func (rs *ReportStore) List(ctx context.Context, user uuid.UUID, page domain.Page) ([]domain.Report, error) {
	q := rs.db.WithContext(ctx).Model(&domain.Report{})
	if user != uuid.Nil {
		q = q.Where("user_id = ?", user)
	}
	var out []domain.Report
	err := q.Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
