package service

import (
	"context"

	"plantar/internal/domain"

	"github.com/google/uuid"
)

// SessionStore persists sessions. Get reports domain.ErrNotFound for unknown ids and
// Update reports domain.ErrConflict when expectedVersion is stale or the row has ended.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]domain.Session, error)
	Update(ctx context.Context, s *domain.Session, expectedVersion int) error
}

// SampleStore appends samples. Append reports domain.ErrNotFound when the session does
// not exist and domain.ErrConflict when it has ended.
type SampleStore interface {
	Append(ctx context.Context, s *domain.Sample) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, page domain.Page) ([]domain.Sample, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type ReportStore interface {
	Create(ctx context.Context, r *domain.Report) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, user uuid.UUID, page domain.Page) ([]domain.Report, error)
}
