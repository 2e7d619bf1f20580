package store

import (
	"context"
	"errors"

	"plantar/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&domain.Session{}, &domain.Sample{}, &domain.Report{})
}

// Postgres error codes the stores translate into domain errors.
const (
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
)

// translate maps backend errors onto the domain error variants.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return domain.ErrNotFound
		case pgSerializationFailure:
			return domain.ErrConflict
		}
	}
	return err
}
